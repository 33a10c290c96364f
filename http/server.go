package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tunefeed/auth"
	"tunefeed/crud"
	"tunefeed/domain"
	"tunefeed/errs"
	"tunefeed/logger"
)

// ShutdownTimeout is how long Run waits for open requests after its context is done.
const ShutdownTimeout = 30 * time.Second

// Server provides most of the http functionality of this app, namely routing,
// request handling, and middleware. It also performs authentication and
// authorization before handing things over to one of the crud services.
type Server struct {
	router *mux.Router
	isProd bool
	userMw *auth.UserMw

	us   domain.UserService
	ps   domain.PostService
	cs   domain.CommentService
	fs   domain.FollowService
	ls   domain.LikeService
	feed domain.FeedService
	bs   domain.BlobService
	pls  domain.PlaylistService
}

// NewServer returns a new instance of the server, registers all necessary
// routes and gives their handlers access to the crud services passed in.
// If csrfKey is not empty, every unsafe request must carry a CSRF token,
// which is issued on "GET /login".
func NewServer(isProd bool, csrfKey string, services *crud.Services) *Server {
	s := &Server{
		router: mux.NewRouter(),
		isProd: isProd,
		userMw: &auth.UserMw{UserService: services.User},
		us:     services.User,
		ps:     services.Post,
		cs:     services.Comment,
		fs:     services.Follow,
		ls:     services.Like,
		feed:   services.Feed,
		bs:     services.Blob,
		pls:    services.Playlist,
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errs.ReturnError(w, r, errs.Errorf(errs.ENOTFOUND, "Not found."))
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_ = json.NewEncoder(w).Encode(&errs.ErrorResponse{Error: "Method not allowed."})
	})

	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Register routes of the auth system.
	s.registerAuthRoutes(s.router)

	// Register routes of the crud system.
	s.registerUserRoutes(s.router)
	s.registerPostRoutes(s.router)
	s.registerLikeRoutes(s.router)
	s.registerFollowRoutes(s.router)
	s.registerFeedRoutes(s.router)
	s.registerMediaRoutes(s.router)
	s.registerPlaylistRoutes(s.router)

	// Set up middleware that needs to run on every request.
	mws := []mux.MiddlewareFunc{requestID, observe}
	if csrfKey != "" {
		mws = append(mws, csrf.Protect([]byte(csrfKey),
			csrf.Secure(isProd),
			csrf.Path("/"),
			csrf.ErrorHandler(http.HandlerFunc(handleCSRFFailure)),
		))
	}
	mws = append(mws, setContentTypeJSON, s.userMw.Apply)
	s.router.Use(mws...)
	return s
}

// ServeHTTP makes the Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens and serves on addr until ctx is done, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Log.Info("server listening", zap.String("addr", addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	logger.Log.Warn("csrf check failed", zap.String("path", r.URL.Path), zap.Error(csrf.FailureReason(r)))
	errs.ReturnError(w, r, errs.Errorf(errs.EFORBIDDEN, "Invalid CSRF token."))
}

// requireAuth rejects requests without a signed in user.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return auth.RequireUser(next)
}

// decodeJSON parses the request's json body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.Errorf(errs.EINVALID, "Invalid json body.")
	}
	return nil
}

// writeJSON writes v with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		errs.LogError(r, err)
	}
}

// pathID parses a positive integer route variable.
func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, errs.Errorf(errs.EINVALID, "Invalid Id format.")
	}
	return id, nil
}

// pageParams reads the "page" and "limit" query parameters. Missing or malformed values
// are passed on as 0, which the feed replaces with its defaults.
func pageParams(r *http.Request) domain.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("limit"))
	return domain.NewPage(number, size)
}

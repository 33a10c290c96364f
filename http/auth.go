package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tunefeed/auth"
	"tunefeed/domain"
	"tunefeed/errs"
	"tunefeed/logger"
)

// rememberMaxAge is how long a browser keeps the remember token cookie.
const rememberMaxAge = 30 * 24 * time.Hour

func (s *Server) registerAuthRoutes(r *mux.Router) {
	// Create an account and sign in.
	r.HandleFunc("/users", s.handleRegister).Methods("POST")

	// Sign in, check the session, and sign out.
	r.HandleFunc("/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/login", s.handleLoginStatus).Methods("GET")
	r.HandleFunc("/login", s.handleLogout).Methods("DELETE")
	r.HandleFunc("/logout", s.handleLogout).Methods("POST")
}

// credentials is the body of a signup or login request.
type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse describes the session of the requesting client.
type sessionResponse struct {
	LoggedIn bool   `json:"logged_in"`
	UserID   int    `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// handleRegister handles the route "POST /users".
// It creates a new user, signs them in and returns the new user's ID.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(r, &creds); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user := domain.User{
		Username: creds.Username,
		Email:    creds.Email,
		Password: creds.Password,
	}
	if err := s.us.Create(r.Context(), &user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.signIn(r.Context(), w, &user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	logger.Log.Info("user registered", logger.WithUserID(user.ID))
	writeJSON(w, r, http.StatusCreated, map[string]int{"user_id": user.ID})
}

// handleLogin handles the route "POST /login".
// It checks the submitted credentials and signs the user in.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeJSON(r, &creds); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if creds.Username == "" || creds.Password == "" {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Username and password are required."))
		return
	}
	user, err := s.us.Authenticate(r.Context(), creds.Username, creds.Password)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.signIn(r.Context(), w, user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, &sessionResponse{LoggedIn: true, UserID: user.ID, Username: user.Username})
}

// handleLoginStatus handles the route "GET /login".
// It reports whether the client is signed in. It also hands out the CSRF token,
// if CSRF protection is enabled.
func (s *Server) handleLoginStatus(w http.ResponseWriter, r *http.Request) {
	if token := csrf.Token(r); token != "" {
		w.Header().Set("X-CSRF-Token", token)
	}
	res := sessionResponse{}
	if user := auth.GetUser(r.Context()); user != nil {
		res = sessionResponse{LoggedIn: true, UserID: user.ID, Username: user.Username}
	}
	writeJSON(w, r, http.StatusOK, &res)
}

// handleLogout handles the routes "DELETE /login" and "POST /logout".
// It expires the cookie and rotates the user's remember token, which invalidates
// any copy of the old cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RememberCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   s.isProd,
		SameSite: http.SameSiteLaxMode,
	})
	if user := auth.GetUser(r.Context()); user != nil {
		token, err := s.us.MakeRememberToken()
		if err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		user.Remember = token
		if err := s.us.Update(r.Context(), user); err != nil {
			// The cookie is gone either way, so the client is signed out.
			logger.Log.Warn("err rotating remember token", logger.WithUserID(user.ID), zap.Error(err))
		}
	}
	writeJSON(w, r, http.StatusOK, &sessionResponse{LoggedIn: false})
}

// signIn sets the remember token cookie of the given user. A user without a remember
// token in memory gets a new one, which is stored (hashed) first.
func (s *Server) signIn(ctx context.Context, w http.ResponseWriter, user *domain.User) error {
	if user.Remember == "" {
		token, err := s.us.MakeRememberToken()
		if err != nil {
			return err
		}
		user.Remember = token
		if err := s.us.Update(ctx, user); err != nil {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.RememberCookie,
		Value:    user.Remember,
		Path:     "/",
		MaxAge:   int(rememberMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.isProd,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

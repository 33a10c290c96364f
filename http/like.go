package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"tunefeed/auth"
	"tunefeed/domain"
	"tunefeed/errs"
)

// registerLikeRoutes is a helper for registering all Like routes.
func (s *Server) registerLikeRoutes(r *mux.Router) {
	// Like a post, or unlike it if the authed user already likes it.
	r.HandleFunc("/posts/{id:[0-9]+}/like", s.requireAuth(s.handleToggleLike)).Methods("POST")
}

// handleToggleLike handles the route "POST /posts/{id}/like".
// It returns whether the authed user now likes the post, and the post's like count.
func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	like := domain.Like{
		UserID: auth.UserID(r.Context()),
		PostID: id,
	}
	result, err := s.ls.Toggle(r.Context(), &like)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

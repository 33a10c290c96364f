package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"tunefeed/auth"
	"tunefeed/errs"
)

func (s *Server) registerFeedRoutes(r *mux.Router) {
	// The posts of the users the authed user follows, newest first.
	r.HandleFunc("/feed", s.requireAuth(s.handleFeed)).Methods("GET")
}

// handleFeed handles the route "GET /feed?page=&limit=".
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	posts, err := s.feed.Followed(r.Context(), auth.UserID(r.Context()), pageParams(r))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, posts)
}

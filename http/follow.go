package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"tunefeed/auth"
	"tunefeed/domain"
	"tunefeed/errs"
)

func (s *Server) registerFollowRoutes(r *mux.Router) {
	r.HandleFunc("/follow/{username}", s.requireAuth(s.handleCreateFollow)).Methods("POST")
	r.HandleFunc("/follow/{username}", s.requireAuth(s.handleDeleteFollow)).Methods("DELETE")
}

// followResponse is the state of a follow edge after a follow or unfollow.
type followResponse struct {
	Username    string `json:"username"`
	IsFollowing bool   `json:"is_following"`
}

// handleCreateFollow handles the route "POST /follow/{username}".
// Following a user twice is not an error.
func (s *Server) handleCreateFollow(w http.ResponseWriter, r *http.Request) {
	follow, err := s.followFromRequest(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.fs.Create(r.Context(), follow); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, &followResponse{Username: follow.Followed.Username, IsFollowing: true})
}

// handleDeleteFollow handles the route "DELETE /follow/{username}".
// Unfollowing a user that is not followed is not an error.
func (s *Server) handleDeleteFollow(w http.ResponseWriter, r *http.Request) {
	follow, err := s.followFromRequest(r)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.fs.Delete(r.Context(), follow); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, &followResponse{Username: follow.Followed.Username, IsFollowing: false})
}

// followFromRequest builds the follow edge from the authed user to the user named in the url.
func (s *Server) followFromRequest(r *http.Request) (*domain.Follow, error) {
	followed, err := s.us.ByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		if errs.IsCode(err, errs.ENOTFOUND) {
			return nil, errs.Errorf(errs.ENOTFOUND, "Target user not found.")
		}
		return nil, err
	}
	return &domain.Follow{
		FollowerID: auth.UserID(r.Context()),
		FollowedID: followed.ID,
		Followed:   *followed,
	}, nil
}

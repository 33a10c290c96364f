package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"tunefeed/auth"
	"tunefeed/domain"
	"tunefeed/errs"
)

func (s *Server) registerPlaylistRoutes(r *mux.Router) {
	// List and create the authed user's playlists.
	r.HandleFunc("/playlists", s.requireAuth(s.handleListPlaylists)).Methods("GET")
	r.HandleFunc("/playlists", s.requireAuth(s.handleCreatePlaylist)).Methods("POST")

	// Save a post to a playlist, or remove it from there.
	r.HandleFunc("/playlists/{name}/posts/{id:[0-9]+}", s.requireAuth(s.handleAddToPlaylist)).Methods("POST")
	r.HandleFunc("/playlists/{name}/posts/{id:[0-9]+}", s.requireAuth(s.handleRemoveFromPlaylist)).Methods("DELETE")
}

// handleListPlaylists handles the route "GET /playlists".
func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.pls.ByUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, playlists)
}

// handleCreatePlaylist handles the route "POST /playlists" with the json body {"name": "..."}.
func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var playlist domain.Playlist
	if err := decodeJSON(r, &playlist); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	playlist.ID = 0
	playlist.Items = nil
	playlist.UserID = auth.UserID(r.Context())
	if err := s.pls.Create(r.Context(), &playlist); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, &playlist)
}

// handleAddToPlaylist handles the route "POST /playlists/{name}/posts/{id}".
func (s *Server) handleAddToPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	playlist, err := s.pls.AddPost(r.Context(), auth.UserID(r.Context()), mux.Vars(r)["name"], id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, playlist)
}

// handleRemoveFromPlaylist handles the route "DELETE /playlists/{name}/posts/{id}".
func (s *Server) handleRemoveFromPlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	playlist, err := s.pls.RemovePost(r.Context(), auth.UserID(r.Context()), mux.Vars(r)["name"], id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, playlist)
}

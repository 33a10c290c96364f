package http

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tunefeed/auth"
	"tunefeed/domain"
	"tunefeed/errs"
	"tunefeed/logger"
)

func (s *Server) registerUserRoutes(r *mux.Router) {
	// Get and update the authed user's own profile.
	r.HandleFunc("/profile", s.requireAuth(s.handleGetOwnProfile)).Methods("GET")
	r.HandleFunc("/profile", s.requireAuth(s.handleUpdateProfile)).Methods("PUT")
	r.HandleFunc("/profile/picture", s.requireAuth(s.handleUploadProfilePicture)).Methods("POST")

	// Search for users. Registered before "/users/{username}", which would match it too.
	r.HandleFunc("/users/search", s.requireAuth(s.handleSearchUsers)).Methods("GET")

	// Get the public profile of a specific user.
	r.HandleFunc("/users/{username}", s.requireAuth(s.handleGetProfile)).Methods("GET")
}

// handleGetOwnProfile handles the route "GET /profile".
func (s *Server) handleGetOwnProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.us.ByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.setUserRelations(r.Context(), user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

// handleGetProfile handles the route "GET /users/{username}".
// It returns the requested user's profile, including whether the authed user follows them.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	found, err := s.us.ByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	// ByUsername does not load playlists.
	user, err := s.us.ByID(r.Context(), found.ID)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.setUserRelations(r.Context(), user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user.Email = ""
	writeJSON(w, r, http.StatusOK, user)
}

// handleUpdateProfile handles the route "PUT /profile".
// Fields missing from the json body stay as they are.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var update domain.UserUpdate
	if err := decodeJSON(r, &update); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	user, err := s.us.ByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	update.Apply(user)
	if err := s.us.Update(r.Context(), user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.setUserRelations(r.Context(), user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

// handleUploadProfilePicture handles the route "POST /profile/picture".
// It stores the uploaded "picture" file and makes it the authed user's profile picture.
func (s *Server) handleUploadProfilePicture(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid multipart form."))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["picture"]
	if len(files) != 1 {
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Exactly one picture is required."))
		return
	}
	user, err := s.us.ByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	blob, err := s.storeUpload(r.Context(), user.ID, files[0])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	if !isImage(blob.ContentType) {
		s.discardBlobs(r.Context(), blob.ID)
		errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "A profile picture must be an image."))
		return
	}
	user.ProfilePicture = blob.ID
	if err := s.us.Update(r.Context(), user); err != nil {
		s.discardBlobs(r.Context(), blob.ID)
		errs.ReturnError(w, r, err)
		return
	}
	if err := s.setUserRelations(r.Context(), user); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, user)
}

// handleSearchUsers handles the route "GET /users/search?q=".
func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.us.Search(r.Context(), auth.UserID(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	results := make([]userSearchResult, len(users))
	for i, u := range users {
		results[i] = newUserSearchResult(u)
	}
	writeJSON(w, r, http.StatusOK, results)
}

// userSearchResult is the public view of a user in search results. It leaves out the
// email address and the playlists.
type userSearchResult struct {
	ID             int      `json:"id"`
	Username       string   `json:"username"`
	Bio            string   `json:"bio"`
	FavoriteGenres []string `json:"favorite_genres"`
	ProfilePicture string   `json:"profile_picture"`
	Followers      []string `json:"followers"`
	Following      []string `json:"following"`
	IsFollowing    bool     `json:"is_following"`
}

func newUserSearchResult(u domain.User) userSearchResult {
	res := userSearchResult{
		ID:             u.ID,
		Username:       u.Username,
		Bio:            u.Bio,
		FavoriteGenres: u.FavoriteGenres,
		ProfilePicture: u.ProfilePicture,
		Followers:      u.Followers,
		Following:      u.Following,
		IsFollowing:    u.IsFollowing,
	}
	if res.FavoriteGenres == nil {
		res.FavoriteGenres = []string{}
	}
	if res.Followers == nil {
		res.Followers = []string{}
	}
	if res.Following == nil {
		res.Following = []string{}
	}
	return res
}

// setUserRelations fills in the followers and following of the given user, and whether
// the authed user follows them.
func (s *Server) setUserRelations(ctx context.Context, user *domain.User) error {
	followers, err := s.fs.FollowerNames(ctx, user.ID)
	if err != nil {
		return err
	}
	following, err := s.fs.FollowingNames(ctx, user.ID)
	if err != nil {
		return err
	}
	user.Followers, user.Following = followers, following

	viewerID := auth.UserID(ctx)
	user.IsFollowing = false
	if viewerID != user.ID {
		user.IsFollowing, err = s.fs.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return err
		}
	}
	if user.Playlists == nil {
		user.Playlists = []domain.Playlist{}
	}
	return nil
}

// discardBlobs deletes blobs that were uploaded for a request that failed afterwards.
func (s *Server) discardBlobs(ctx context.Context, ids ...string) {
	for _, id := range ids {
		if err := s.bs.Delete(ctx, id); err != nil {
			logger.Log.Warn("err deleting discarded blob", zap.String("blob_id", id), zap.Error(err))
		}
	}
}

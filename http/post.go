package http

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tunefeed/auth"
	"tunefeed/domain"
	"tunefeed/errs"
	"tunefeed/logger"
)

func (s *Server) registerPostRoutes(r *mux.Router) {
	// List all posts, newest first, and publish a new one.
	r.HandleFunc("/posts", s.requireAuth(s.handleListPosts)).Methods("GET")
	r.HandleFunc("/posts", s.requireAuth(s.handleCreatePost)).Methods("POST")

	// Get a single post with its comments.
	r.HandleFunc("/posts/{id:[0-9]+}", s.requireAuth(s.handleGetPost)).Methods("GET")

	// Comment on a post, and list its comments.
	r.HandleFunc("/posts/{id:[0-9]+}/comment", s.requireAuth(s.handleCreateComment)).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/comments", s.requireAuth(s.handleListComments)).Methods("GET")

	// Search posts by title and content.
	r.HandleFunc("/contents/search", s.requireAuth(s.handleSearchPosts)).Methods("GET")
}

// handleListPosts handles the route "GET /posts?page=&limit=".
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.feed.List(r.Context(), auth.UserID(r.Context()), pageParams(r))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, posts)
}

// handleCreatePost handles the route "POST /posts".
// The post is either a json body with a title and content, or a multipart form with the
// fields "title" and "content" and up to domain.MaxMediaPerPost "media" files. Files
// stored for a post that fails validation are deleted again.
func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	post := domain.Post{UserID: userID}

	var blobIDs []string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, domain.MaxMediaPerPost*domain.MaxUploadSize+multipartOverhead)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Invalid multipart form."))
			return
		}
		defer r.MultipartForm.RemoveAll()

		post.Title = r.FormValue("title")
		post.Content = r.FormValue("content")
		files := r.MultipartForm.File["media"]
		if len(files) > domain.MaxMediaPerPost {
			errs.ReturnError(w, r, errs.Errorf(errs.EINVALID, "Too many media files, not more than %d allowed.", domain.MaxMediaPerPost))
			return
		}
		for _, fh := range files {
			blob, err := s.storeUpload(r.Context(), userID, fh)
			if err != nil {
				s.discardBlobs(r.Context(), blobIDs...)
				errs.ReturnError(w, r, err)
				return
			}
			blobIDs = append(blobIDs, blob.ID)
			post.Media = append(post.Media, domain.Media{BlobID: blob.ID, MimeType: blob.ContentType})
		}
	} else {
		var body struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := decodeJSON(r, &body); err != nil {
			errs.ReturnError(w, r, err)
			return
		}
		post.Title, post.Content = body.Title, body.Content
	}

	if err := s.ps.Create(r.Context(), &post); err != nil {
		s.discardBlobs(r.Context(), blobIDs...)
		errs.ReturnError(w, r, err)
		return
	}
	logger.Log.Info("post created", logger.WithUserID(userID), logger.WithPostID(post.ID))
	writeJSON(w, r, http.StatusCreated, &post)
}

// handleGetPost handles the route "GET /posts/{id}".
func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	post, err := s.ps.ByID(r.Context(), id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	posts := []domain.Post{*post}
	if err := s.feed.Annotate(r.Context(), auth.UserID(r.Context()), posts); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, &posts[0])
}

// handleCreateComment handles the route "POST /posts/{id}/comment".
// It reads the comment text from the json body {"comment": "..."} and returns the new comment.
func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	var body struct {
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r, &body); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	comment := domain.Comment{
		PostID: id,
		UserID: auth.UserID(r.Context()),
		Text:   body.Comment,
	}
	if err := s.cs.Create(r.Context(), &comment); err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, &comment)
}

// handleListComments handles the route "GET /posts/{id}/comments".
// It returns the comments of the post, oldest first.
func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	comments, err := s.cs.ByPostID(r.Context(), id)
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, comments)
}

// handleSearchPosts handles the route "GET /contents/search?q=".
func (s *Server) handleSearchPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.feed.Search(r.Context(), auth.UserID(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, posts)
}

package http

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"tunefeed/domain"
	"tunefeed/errs"
)

const (
	// multipartMemory is how much of a multipart form is held in memory.
	// Larger files are spooled to temporary files.
	multipartMemory = 32 << 20
	// multipartOverhead is added to the size limit of request bodies for the form fields.
	multipartOverhead = 1 << 20
)

func (s *Server) registerMediaRoutes(r *mux.Router) {
	// Stream an uploaded media file.
	r.HandleFunc("/media/{id}", s.requireAuth(s.handleGetMedia)).Methods("GET")
}

// handleGetMedia handles the route "GET /media/{id}".
// It streams the file with its stored content type.
func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	blob, rc, err := s.bs.Open(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		errs.ReturnError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if blob.Filename != "" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": blob.Filename}))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		// The status line is already sent, all we can do is log.
		errs.LogError(r, err)
	}
}

// storeUpload validates and stores an uploaded file as a blob owned by userID.
func (s *Server) storeUpload(ctx context.Context, userID int, fh *multipart.FileHeader) (*domain.Blob, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	blob := &domain.Blob{
		UserID:      userID,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		File:        file,
	}
	if err := s.bs.Create(ctx, blob); err != nil {
		return nil, err
	}
	return blob, nil
}

func isImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

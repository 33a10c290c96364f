package crud

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tunefeed/domain"
	"tunefeed/errs"
	"tunefeed/logger"
	"tunefeed/metrics"
	"tunefeed/storage"
)

// BlobService manages uploaded media files.
// It implements the domain.BlobService interface.
type BlobService struct {
	blobValidator
}

// blobValidator runs validations on incoming Blob data.
// On success, it passes the data on to blobCrud.
// Otherwise, it returns the error of the validation that has failed.
type blobValidator struct {
	blobCrud
}

// blobCrud stores blob metadata in the database and blob bytes in the storage backend.
// It assumes that data has been validated.
type blobCrud struct {
	db      *gorm.DB
	backend storage.Backend
}

// NewBlobService returns an instance of BlobService.
func NewBlobService(db *gorm.DB, backend storage.Backend) *BlobService {
	return &BlobService{
		blobValidator{
			blobCrud{
				db:      db,
				backend: backend,
			},
		},
	}
}

// Ensure the BlobService struct properly implements the domain.BlobService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.BlobService = &BlobService{}

// Create runs validations needed for storing an uploaded file.
func (bv *blobValidator) Create(ctx context.Context, blob *domain.Blob) error {
	err := runBlobValFns(blob,
		bv.fileRequired,
		bv.belowMaxSize,
		bv.contentTypeValid,
		bv.filenameNormalize,
		bv.idAssign,
	)
	if err != nil {
		return err
	}
	return bv.blobCrud.Create(ctx, blob)
}

// runBlobValFns runs any number of functions of type blobValFn on the passed in Blob object.
func runBlobValFns(blob *domain.Blob, fns ...blobValFn) error {
	for _, fn := range fns {
		if err := fn(blob); err != nil {
			return err
		}
	}
	return nil
}

// A blobValFn is any function that takes in a pointer to a domain.Blob object and returns an error.
type blobValFn func(blob *domain.Blob) error

// allowedContentTypes lists the media types a blob may have, by prefix.
var allowedContentTypes = []string{"image/", "audio/", "video/", "application/ogg"}

// fileRequired makes sure that there is something to store.
func (bv *blobValidator) fileRequired(blob *domain.Blob) error {
	if blob.File == nil {
		return errs.Errorf(errs.EINVALID, "A file is required.")
	}
	return nil
}

// belowMaxSize measures the file and makes sure that it is neither empty nor larger than
// domain.MaxUploadSize.
func (bv *blobValidator) belowMaxSize(blob *domain.Blob) error {
	size, err := blob.File.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if _, err = blob.File.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if size == 0 {
		return errs.Errorf(errs.EINVALID, "File %s is empty.", blob.Filename)
	}
	if size > domain.MaxUploadSize {
		return errs.Errorf(errs.EINVALID, "File %s exceeds upload size limit of %dMB.",
			blob.Filename, domain.MaxUploadSize>>20)
	}
	blob.Size = size
	return nil
}

// contentTypeValid sniffs the file's content type and makes sure that it is a media type.
// If the content cannot be recognized, the content type declared by the client is used.
func (bv *blobValidator) contentTypeValid(blob *domain.Blob) error {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(blob.File, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}
	if _, err = blob.File.Seek(0, io.SeekStart); err != nil {
		return err
	}
	contentType := http.DetectContentType(buffer[:n])
	if contentType == "application/octet-stream" && blob.ContentType != "" {
		contentType = blob.ContentType
	}
	contentType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, prefix := range allowedContentTypes {
		if strings.HasPrefix(contentType, prefix) {
			blob.ContentType = contentType
			return nil
		}
	}
	return errs.Errorf(errs.EINVALID, "File %s has invalid content-type %s, must be an image, audio or video file.",
		blob.Filename, contentType)
}

// filenameNormalize strips any directories from the client's file name.
func (bv *blobValidator) filenameNormalize(blob *domain.Blob) error {
	name := filepath.Base(strings.ReplaceAll(blob.Filename, `\`, "/"))
	if name == "." || name == "/" {
		name = ""
	}
	if len(name) > 255 {
		name = name[len(name)-255:]
	}
	blob.Filename = name
	return nil
}

// idAssign gives the blob a new random ID, which is also its storage key.
func (bv *blobValidator) idAssign(blob *domain.Blob) error {
	blob.ID = uuid.NewString()
	return nil
}

// Create writes the blob's bytes to the backend, then records its metadata. If the
// metadata cannot be written, the stored bytes are removed again.
func (bc *blobCrud) Create(ctx context.Context, blob *domain.Blob) error {
	if err := bc.backend.Put(ctx, blob.ID, blob.ContentType, blob.File, blob.Size); err != nil {
		return err
	}
	if err := bc.db.WithContext(ctx).Create(blob).Error; err != nil {
		if rmErr := bc.backend.Remove(ctx, blob.ID); rmErr != nil {
			logger.Log.Warn("err removing orphaned blob", zap.String("blob_id", blob.ID), zap.Error(rmErr))
		}
		return err
	}
	metrics.Get().UploadedBytes.Add(float64(blob.Size))
	return nil
}

// ByID retrieves a blob's metadata.
func (bc *blobCrud) ByID(ctx context.Context, id string) (*domain.Blob, error) {
	var blob domain.Blob
	if err := bc.db.WithContext(ctx).First(&blob, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "File not found.")
	}
	return &blob, nil
}

// Open retrieves a blob's metadata and a reader for its bytes. The caller must close the reader.
func (bc *blobCrud) Open(ctx context.Context, id string) (*domain.Blob, io.ReadCloser, error) {
	blob, err := bc.ByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := bc.backend.Get(ctx, blob.ID)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil, errs.Errorf(errs.ENOTFOUND, "File not found.")
	}
	if err != nil {
		return nil, nil, err
	}
	return blob, rc, nil
}

// Delete removes a blob's metadata and bytes. Deleting a missing blob is not an error.
func (bc *blobCrud) Delete(ctx context.Context, id string) error {
	if err := bc.db.WithContext(ctx).Delete(&domain.Blob{}, "id = ?", id).Error; err != nil {
		return err
	}
	return bc.backend.Remove(ctx, id)
}

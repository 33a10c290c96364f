package domain

import (
	"context"
	"io"
	"time"
)

const (
	// MaxUploadSize determines the maximum size of a single uploaded media file.
	MaxUploadSize int64 = 10 << 20 // 10 Megabyte
)

// Blob is an uploaded media file. The database only holds its metadata; the bytes are
// kept by a storage backend under the blob's ID. Posts and profiles reference blobs by ID.
// File is only set while a blob is being uploaded.
type Blob struct {
	ID          string        `json:"id" gorm:"primaryKey;size:36"`
	UserID      int           `json:"-" gorm:"index"`
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type" gorm:"notNull"`
	Size        int64         `json:"size"`
	File        io.ReadSeeker `json:"-" gorm:"-"`
	CreatedAt   time.Time     `json:"created_at"`
}

// BlobService is a set of methods to store and stream media files.
type BlobService interface {
	Create(ctx context.Context, blob *Blob) error
	ByID(ctx context.Context, id string) (*Blob, error)
	Open(ctx context.Context, id string) (*Blob, io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

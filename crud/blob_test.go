package crud

import (
	"bytes"
	"io"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tunefeed/domain"
	"tunefeed/errs"
)

var (
	pngBytes = append([]byte("\x89PNG\x0D\x0A\x1A\x0A"), bytes.Repeat([]byte{0x42}, 64)...)
	mp3Bytes = append([]byte("ID3\x03\x00"), bytes.Repeat([]byte{0x00, 0x7f}, 64)...)
)

// createBlob stores data as a blob owned by the given user.
func (s *CrudTestSuite) createBlob(owner *domain.User, filename string, data []byte) *domain.Blob {
	blob := &domain.Blob{UserID: owner.ID, Filename: filename, File: bytes.NewReader(data)}
	require.NoError(s.T(), s.services.Blob.Create(s.ctx, blob))
	return blob
}

func (s *CrudTestSuite) TestCreateAndOpenBlob() {
	bob := s.createUser("bob")
	blob := s.createBlob(bob, "../../etc/song.mp3", mp3Bytes)

	assert.Len(s.T(), blob.ID, 36)
	assert.Equal(s.T(), "song.mp3", blob.Filename)
	assert.Equal(s.T(), "audio/mpeg", blob.ContentType)
	assert.EqualValues(s.T(), len(mp3Bytes), blob.Size)

	meta, rc, err := s.services.Blob.Open(s.ctx, blob.ID)
	require.NoError(s.T(), err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), mp3Bytes, data)
	assert.Equal(s.T(), blob.ContentType, meta.ContentType)
}

func (s *CrudTestSuite) TestBlobFallsBackToDeclaredType() {
	bob := s.createUser("bob")
	blob := &domain.Blob{
		UserID:      bob.ID,
		Filename:    "take.flac",
		ContentType: "audio/flac",
		File:        bytes.NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05}),
	}
	require.NoError(s.T(), s.services.Blob.Create(s.ctx, blob))
	assert.Equal(s.T(), "audio/flac", blob.ContentType)
}

func (s *CrudTestSuite) TestCreateBlobValidation() {
	bob := s.createUser("bob")

	tests := []struct {
		name string
		blob *domain.Blob
	}{
		{"no file", &domain.Blob{UserID: bob.ID, Filename: "x.png"}},
		{"empty", &domain.Blob{UserID: bob.ID, Filename: "x.png", File: bytes.NewReader(nil)}},
		{"text", &domain.Blob{UserID: bob.ID, Filename: "x.png", ContentType: "image/png", File: bytes.NewReader([]byte("just some text"))}},
		{"too large", &domain.Blob{UserID: bob.ID, Filename: "x.png", File: bytes.NewReader(make([]byte, domain.MaxUploadSize+1))}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.requireCode(s.services.Blob.Create(s.ctx, tt.blob), errs.EINVALID)
		})
	}

	var count int64
	require.NoError(s.T(), s.db.Model(&domain.Blob{}).Count(&count).Error)
	assert.Zero(s.T(), count)
}

func (s *CrudTestSuite) TestDeleteBlob() {
	bob := s.createUser("bob")
	blob := s.createBlob(bob, "cover.png", pngBytes)

	require.NoError(s.T(), s.services.Blob.Delete(s.ctx, blob.ID))

	_, _, err := s.services.Blob.Open(s.ctx, blob.ID)
	s.requireCode(err, errs.ENOTFOUND)
	_, err = s.services.Blob.ByID(s.ctx, blob.ID)
	s.requireCode(err, errs.ENOTFOUND)

	// Deleting twice is fine.
	require.NoError(s.T(), s.services.Blob.Delete(s.ctx, blob.ID))
}

func (s *CrudTestSuite) TestOpenBlobWithMissingBytes() {
	bob := s.createUser("bob")
	blob := s.createBlob(bob, "cover.png", pngBytes)
	require.NoError(s.T(), s.backend.Remove(s.ctx, blob.ID))

	_, _, err := s.services.Blob.Open(s.ctx, blob.ID)
	s.requireCode(err, errs.ENOTFOUND)
}

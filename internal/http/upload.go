package http

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"hospital-portal/internal/storage"
)

const (
	// ImageField is the multipart field carrying an entity image.
	ImageField = "image"
	// MaxImageSize is the largest accepted image.
	MaxImageSize = 5 << 20
)

// upload is an image received with a form, checked but not stored yet.
type upload struct {
	file        multipart.File
	size        int64
	contentType string
	ext         string
}

func (u *upload) Close() error {
	if u == nil {
		return nil
	}
	return u.file.Close()
}

// formImage returns the image sent with a multipart form, or nil when the
// field was left empty.  A non-empty message means the file was rejected
// and belongs on the "image" field.
func formImage(r *http.Request) (*upload, string) {
	if r.MultipartForm == nil {
		return nil, ""
	}
	f, h, err := r.FormFile(ImageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, ""
	}
	if err != nil {
		return nil, "The image could not be read."
	}
	if h.Size > MaxImageSize {
		f.Close()
		return nil, "The image may not be larger than 5 MB."
	}
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	contentType := http.DetectContentType(head[:n])
	if !strings.HasPrefix(contentType, "image/") {
		f.Close()
		return nil, "The file must be an image."
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, "The image could not be read."
	}
	ext := strings.ToLower(path.Ext(h.Filename))
	if ext == "" || len(ext) > 6 {
		ext = ""
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return &upload{file: f, size: h.Size, contentType: contentType, ext: ext}, ""
}

// storeImage saves up under dir with a fresh key and returns the key.
func (s *Server) storeImage(ctx context.Context, dir string, up *upload) (string, error) {
	key := dir + "/" + uuid.NewString() + up.ext
	if err := s.Blobs.Put(ctx, key, up.file, up.size, up.contentType); err != nil {
		return "", err
	}
	return key, nil
}

// discardImage deletes a stored image.  Failures only leave an orphaned
// object behind, so they are logged.
func (s *Server) discardImage(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.Blobs.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNoObject) {
		s.Log.WithError(err).WithField("key", key).Warn("image cleanup failed")
	}
}

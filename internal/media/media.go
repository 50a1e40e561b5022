// Package media stores uploaded files with the external media host.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"handyhub/pkg/apperror"

	"github.com/disintegration/imaging"
)

// Object is a stored file: its public URL and the opaque id used to delete it
type Object struct {
	URL      string
	PublicID string
}

// Store is the media host
type Store interface {
	Upload(ctx context.Context, data []byte, filename, folder string) (Object, error)
	Delete(ctx context.Context, publicID string) error
}

var allowedTypes = map[string][]string{
	"image/jpeg":      {".jpg", ".jpeg"},
	"image/png":       {".png"},
	"application/pdf": {".pdf"},
}

// ValidateDocument checks size and content type for identity and certification uploads.
// The sniffed MIME type must agree with the file extension.
func ValidateDocument(data []byte, filename string, maxBytes int64) (string, error) {
	if len(data) == 0 {
		return "", apperror.Validation("File is empty", map[string]string{"file": "required"})
	}
	if int64(len(data)) > maxBytes {
		return "", apperror.Validation(fmt.Sprintf("File exceeds the %d MB limit", maxBytes>>20), map[string]string{"file": "too large"})
	}

	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	exts, ok := allowedTypes[mime]
	if !ok {
		return "", apperror.Validation("Only JPEG, PNG and PDF files are allowed", map[string]string{"file": "unsupported type " + mime})
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range exts {
		if e == ext {
			return mime, nil
		}
	}
	return "", apperror.Validation("File extension does not match its content", map[string]string{"file": "extension " + ext + " for " + mime})
}

// NormalizeImage decodes an image, shrinks it to at most maxWidth and re-encodes it as JPEG
func NormalizeImage(data []byte, maxWidth int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperror.Validation("File is not a valid image", map[string]string{"file": "invalid image"})
	}
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Unavailable is used when no media host is configured. Every call fails.
type Unavailable struct{}

var errUnavailable = errors.New("media storage is not configured")

func (Unavailable) Upload(context.Context, []byte, string, string) (Object, error) {
	return Object{}, errUnavailable
}

func (Unavailable) Delete(context.Context, string) error {
	return errUnavailable
}

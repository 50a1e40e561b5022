package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"handyhub/internal/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// CloudinaryStore keeps uploads on Cloudinary under a root folder
type CloudinaryStore struct {
	cld  *cloudinary.Cloudinary
	root string
}

func NewCloudinaryStore(cfg config.CloudinaryConfig) (*CloudinaryStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary credentials are not configured")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, root: cfg.Folder}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, data []byte, filename, folder string) (Object, error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	params := uploader.UploadParams{
		PublicID:     fmt.Sprintf("%s-%s", sanitize(base), uuid.NewString()[:8]),
		Folder:       s.root + "/" + folder,
		ResourceType: "image", // Cloudinary serves PDFs as image resources
	}

	resp, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), params)
	if err != nil {
		return Object{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return Object{}, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	return Object{URL: resp.SecureURL, PublicID: resp.PublicID}, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID, ResourceType: "image"})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", resp.Error.Message)
	}
	return nil
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == ' ':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}

package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FileUploader stores an uploaded project and returns the link learners and
// instructors use to download it.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// LocalUploader writes uploads below a directory served at URLPrefix.
type LocalUploader struct {
	dir       string
	urlPrefix string
	logger    zerolog.Logger
}

// NewLocalUploader creates dir if needed. Returned links are relative paths
// under urlPrefix.
func NewLocalUploader(dir, urlPrefix string, logger zerolog.Logger) (*LocalUploader, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload directory must be provided")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalUploader{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		logger:    logger.With().Str("component", "local_uploader").Logger(),
	}, nil
}

// Dir is the directory uploads are written to.
func (u *LocalUploader) Dir() string {
	return u.dir
}

// Upload copies reader into a uniquely named file.
func (u *LocalUploader) Upload(_ context.Context, name string, reader io.Reader) (string, error) {
	stored := uuid.NewString() + "-" + sanitizeFilename(name)
	path := filepath.Join(u.dir, stored)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}

	u.logger.Debug().Str("path", path).Msg("upload stored")
	return u.urlPrefix + "/" + stored, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	cleaned = strings.Trim(cleaned, "-.")
	if cleaned == "" {
		return "project"
	}
	return cleaned
}

package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"signals-api/internal/config"
	"signals-api/internal/util"
)

// UploadService stores client-uploaded files on local disk under a
// timestamp-derived name, keeping the original extension.
type UploadService struct {
	dir     string
	maxSize int64
	now     func() time.Time
}

func NewUploadService(cfg *config.Config) (*UploadService, error) {
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &UploadService{
		dir:     cfg.Upload.Dir,
		maxSize: cfg.Upload.MaxSizeBytes,
		now:     time.Now,
	}, nil
}

// Dir is the directory uploads are served back from.
func (s *UploadService) Dir() string { return s.dir }

// MaxSize is the per-file size cap in bytes.
func (s *UploadService) MaxSize() int64 { return s.maxSize }

// Save writes the uploaded content to disk and returns the stored file
// name. Only the extension of the client-supplied name is kept; the rest of
// the name is the upload's unix-millisecond timestamp, so stored names never
// contain path separators from the client.
func (s *UploadService) Save(originalName string, r io.Reader) (string, error) {
	ext := filepath.Ext(filepath.Base(originalName))
	name := strconv.FormatInt(s.now().UnixMilli(), 10) + ext
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	if written > s.maxSize {
		os.Remove(path)
		return "", fmt.Errorf("upload exceeds %d bytes", s.maxSize)
	}

	util.Info("File uploaded", util.String("file", name))
	return name, nil
}

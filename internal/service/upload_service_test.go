package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signals-api/internal/config"
)

func testUploadService(t *testing.T, maxSize int64) *UploadService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.MaxSizeBytes = maxSize
	svc, err := NewUploadService(cfg)
	require.NoError(t, err)
	return svc
}

func TestSaveKeepsExtensionAndTimestampsName(t *testing.T) {
	svc := testUploadService(t, 1<<20)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	name, err := svc.Save("chart.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "1709294400000.png", name)

	content, err := os.ReadFile(filepath.Join(svc.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))
}

func TestSaveStripsClientPath(t *testing.T) {
	svc := testUploadService(t, 1<<20)

	name, err := svc.Save("../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)

	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, "..")
	_, err = os.Stat(filepath.Join(svc.Dir(), name))
	assert.NoError(t, err)
}

func TestSaveEnforcesSizeLimit(t *testing.T) {
	svc := testUploadService(t, 8)

	_, err := svc.Save("big.bin", strings.NewReader("way more than eight bytes"))
	require.Error(t, err)

	entries, readErr := os.ReadDir(svc.Dir())
	require.NoError(t, readErr)
	assert.Empty(t, entries, "oversized upload must not leave a partial file")
}

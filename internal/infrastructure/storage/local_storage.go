package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"resize-server/internal/config"
	"resize-server/internal/infrastructure/metrics"
)

// LocalStorage keeps image files on the local filesystem under
// root/<user_id>/<image_id>/<filename>. Origin and subimage files are
// siblings inside the image directory, so the directory is the unit of
// cascading deletion.
type LocalStorage struct {
	root string
	log  zerolog.Logger
}

// NewLocalStorage creates a new local filesystem storage backend.
func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	root := strings.TrimSpace(cfg.BlobRoot)
	if root == "" {
		return nil, fmt.Errorf("IMAGE_BLOB_ROOT is empty")
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob root: %w", err)
	}

	logger.Info().Str("path", root).Msg("local storage initialized")

	return &LocalStorage{
		root: root,
		log:  logger,
	}, nil
}

func (l *LocalStorage) imageDir(userID, imageID string) string {
	return filepath.Join(l.root, userID, imageID)
}

func (l *LocalStorage) filePath(userID, imageID, filename string) string {
	return filepath.Join(l.imageDir(userID, imageID), filename)
}

// CreateImage creates the image directory and writes the first file into it.
// The directory create is exclusive: if it already exists the call fails with
// fs.ErrExist and nothing is written, which makes concurrent duplicate
// uploads race to a deterministic loser instead of a double write.
func (l *LocalStorage) CreateImage(ctx context.Context, userID, imageID, filename string, data []byte) error {
	if err := os.MkdirAll(filepath.Join(l.root, userID), 0o755); err != nil {
		metrics.RecordStorageOperation("create_image", "error")
		return fmt.Errorf("create user directory: %w", err)
	}
	if err := os.Mkdir(l.imageDir(userID, imageID), 0o755); err != nil {
		metrics.RecordStorageOperation("create_image", "error")
		return fmt.Errorf("create image directory: %w", err)
	}
	if err := os.WriteFile(l.filePath(userID, imageID, filename), data, 0o644); err != nil {
		metrics.RecordStorageOperation("create_image", "error")
		return fmt.Errorf("write image file: %w", err)
	}

	metrics.RecordStorageOperation("create_image", "success")
	l.log.Debug().
		Str("user_id", userID).
		Str("image_id", imageID).
		Str("filename", filename).
		Int("bytes", len(data)).
		Msg("image directory created")
	return nil
}

// WriteFile adds a sibling file to an existing image directory.
func (l *LocalStorage) WriteFile(ctx context.Context, userID, imageID, filename string, data []byte) error {
	if err := os.WriteFile(l.filePath(userID, imageID, filename), data, 0o644); err != nil {
		metrics.RecordStorageOperation("write_file", "error")
		return fmt.Errorf("write image file: %w", err)
	}
	metrics.RecordStorageOperation("write_file", "success")
	l.log.Debug().
		Str("user_id", userID).
		Str("image_id", imageID).
		Str("filename", filename).
		Int("bytes", len(data)).
		Msg("file written")
	return nil
}

// Read returns the raw bytes of one stored file.
func (l *LocalStorage) Read(ctx context.Context, userID, imageID, filename string) ([]byte, error) {
	data, err := os.ReadFile(l.filePath(userID, imageID, filename))
	if err != nil {
		metrics.RecordStorageOperation("read", "error")
		return nil, fmt.Errorf("read image file: %w", err)
	}
	metrics.RecordStorageOperation("read", "success")
	return data, nil
}

// DeleteFile removes a single file without touching its siblings.
func (l *LocalStorage) DeleteFile(ctx context.Context, userID, imageID, filename string) error {
	if err := os.Remove(l.filePath(userID, imageID, filename)); err != nil {
		metrics.RecordStorageOperation("delete_file", "error")
		return fmt.Errorf("delete image file: %w", err)
	}
	metrics.RecordStorageOperation("delete_file", "success")
	return nil
}

// DeleteImageDir removes the whole image directory: the origin file and every
// subimage file with it.
func (l *LocalStorage) DeleteImageDir(ctx context.Context, userID, imageID string) error {
	if err := os.RemoveAll(l.imageDir(userID, imageID)); err != nil {
		metrics.RecordStorageOperation("delete_image_dir", "error")
		return fmt.Errorf("delete image directory: %w", err)
	}
	metrics.RecordStorageOperation("delete_image_dir", "success")
	return nil
}

// DeleteUserDir removes everything stored for a user. A missing directory is
// a no-op success.
func (l *LocalStorage) DeleteUserDir(ctx context.Context, userID string) error {
	if err := os.RemoveAll(filepath.Join(l.root, userID)); err != nil {
		metrics.RecordStorageOperation("delete_user_dir", "error")
		return fmt.Errorf("delete user directory: %w", err)
	}
	metrics.RecordStorageOperation("delete_user_dir", "success")
	return nil
}

// Health checks if the storage root is writable.
func (l *LocalStorage) Health(ctx context.Context) error {
	testFile := filepath.Join(l.root, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("blob root not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}

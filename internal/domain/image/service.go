package image

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"resize-server/internal/config"
	"resize-server/utils/imagename"
)

var allowedMIMEs = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
	"image/bmp":  {},
	"image/tiff": {},
}

// Index is the metadata store holding one record per persisted file.
// FindOne must match exactly one record: zero matches yield ErrNotFound,
// more than one yields ErrAmbiguousRecord.
type Index interface {
	Insert(ctx context.Context, rec Record) error
	FindOne(ctx context.Context, f Filter) (Record, error)
	FindMany(ctx context.Context, f Filter) ([]Record, error)
	RemoveWhere(ctx context.Context, f Filter) (int64, error)
}

// BlobStore persists raw image bytes under root/<user_id>/<image_id>/<file>.
// CreateImage must create the image directory with create-exclusive semantics
// and surface fs.ErrExist when it is already present, so a concurrent
// duplicate upload resolves to a deterministic error. WriteFile adds a
// sibling file to an existing image directory. Reads surface fs.ErrNotExist
// for missing files.
type BlobStore interface {
	CreateImage(ctx context.Context, userID, imageID, filename string, data []byte) error
	WriteFile(ctx context.Context, userID, imageID, filename string, data []byte) error
	Read(ctx context.Context, userID, imageID, filename string) ([]byte, error)
	DeleteFile(ctx context.Context, userID, imageID, filename string) error
	DeleteImageDir(ctx context.Context, userID, imageID string) error
	DeleteUserDir(ctx context.Context, userID string) error
}

// Resizer produces resized image bytes. Implementations must reject width or
// height values of 1 or less with ErrInvalidDimensions before doing any work.
type Resizer interface {
	Resize(data []byte, width, height int) ([]byte, error)
}

// Service coordinates the blob store and the metadata index. There is no
// cross-resource transaction: every operation orders its steps so that a
// partial failure either leaves nothing behind or is undone by a single
// compensating delete.
type Service struct {
	cfg     *config.Config
	index   Index
	blobs   BlobStore
	resizer Resizer
	log     zerolog.Logger
}

func NewService(cfg *config.Config, index Index, blobs BlobStore, resizer Resizer, log zerolog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		index:   index,
		blobs:   blobs,
		resizer: resizer,
		log:     log.With().Str("component", "image-service").Logger(),
	}
}

// AddOrigin stores an uploaded image and returns its content-derived ID.
// The file is written before the record is inserted so that an index failure
// can be compensated by removing the orphan directory; a storage failure
// never reaches the index at all.
func (s *Service) AddOrigin(ctx context.Context, userID string, data []byte) (string, error) {
	if err := s.validateUpload(data); err != nil {
		return "", err
	}

	imageID := ContentID(userID, data)
	filename := imagename.NewOrigin()

	if err := s.blobs.CreateImage(ctx, userID, imageID, filename, data); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("origin %s: %w", imageID, ErrDuplicateImage)
		}
		return "", fmt.Errorf("write origin file: %w", err)
	}

	rec := Record{
		UserID:    userID,
		ImageID:   imageID,
		Origin:    true,
		Filename:  filename,
		Timestamp: time.Now().UTC(),
	}
	if err := s.index.Insert(ctx, rec); err != nil {
		if cerr := s.blobs.DeleteImageDir(ctx, userID, imageID); cerr != nil {
			s.log.Error().Err(cerr).
				Str("user_id", userID).
				Str("image_id", imageID).
				Msg("compensation failed: orphan image directory left behind")
		}
		return "", fmt.Errorf("insert origin record: %w", err)
	}

	s.log.Info().Str("user_id", userID).Str("image_id", imageID).Msg("origin stored")
	return imageID, nil
}

// AddSubimage stores resized bytes under an existing origin and returns the
// subimage's content-derived ID. The subimage file is a sibling of the origin
// file, so compensation removes only that file, never the directory.
func (s *Service) AddSubimage(ctx context.Context, userID, imageID string, data []byte, meta Meta) (string, error) {
	if _, err := s.index.FindOne(ctx, ByOrigin(userID, imageID)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("origin %s: %w", imageID, ErrOriginNotFound)
		}
		return "", fmt.Errorf("resolve origin record: %w", err)
	}

	subimageID := ContentID(userID, data)
	if _, err := s.index.FindOne(ctx, BySubimage(userID, imageID, subimageID)); err == nil {
		return "", fmt.Errorf("subimage %s: %w", subimageID, ErrDuplicateImage)
	} else if !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("check subimage duplicate: %w", err)
	}

	filename := imagename.NewSubimage()
	if err := s.blobs.WriteFile(ctx, userID, imageID, filename, data); err != nil {
		return "", fmt.Errorf("write subimage file: %w", err)
	}

	rec := Record{
		UserID:     userID,
		ImageID:    imageID,
		SubimageID: subimageID,
		Origin:     false,
		Filename:   filename,
		Timestamp:  time.Now().UTC(),
		Meta:       meta,
	}
	if err := s.index.Insert(ctx, rec); err != nil {
		if cerr := s.blobs.DeleteFile(ctx, userID, imageID, filename); cerr != nil {
			s.log.Error().Err(cerr).
				Str("user_id", userID).
				Str("image_id", imageID).
				Str("filename", filename).
				Msg("compensation failed: orphan subimage file left behind")
		}
		return "", fmt.Errorf("insert subimage record: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("image_id", imageID).
		Str("subimage_id", subimageID).
		Msg("subimage stored")
	return subimageID, nil
}

// GetOrigin returns the original bytes of an image.
func (s *Service) GetOrigin(ctx context.Context, userID, imageID string) ([]byte, error) {
	return s.readByFilter(ctx, ByOrigin(userID, imageID), imageID)
}

// GetSubimage returns the bytes of one resized variant.
func (s *Service) GetSubimage(ctx context.Context, userID, imageID, subimageID string) ([]byte, error) {
	return s.readByFilter(ctx, BySubimage(userID, imageID, subimageID), imageID)
}

func (s *Service) readByFilter(ctx context.Context, f Filter, imageID string) ([]byte, error) {
	rec, err := s.index.FindOne(ctx, f)
	if err != nil {
		return nil, err
	}
	data, err := s.blobs.Read(ctx, rec.UserID, imageID, rec.Filename)
	if err != nil {
		// An index hit with a missing file is a consistency fault, not a
		// regular not-found: the caller must see the store as damaged.
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("record %s names missing file %s: %w", imageID, rec.Filename, ErrConsistency)
		}
		return nil, fmt.Errorf("read image file: %w", err)
	}
	return data, nil
}

// ListOrigins returns every origin record in the user namespace.
func (s *Service) ListOrigins(ctx context.Context, userID string) ([]Record, error) {
	return s.index.FindMany(ctx, OriginsOf(userID))
}

// ListSubimages returns every subimage record under one origin.
func (s *Service) ListSubimages(ctx context.Context, userID, imageID string) ([]Record, error) {
	return s.index.FindMany(ctx, SubimagesOf(userID, imageID))
}

// RemoveOrigin deletes the origin and all of its subimages. The directory is
// removed first: if that fails the index is left untouched so a retry stays
// clean. A successful directory delete that removes zero records means the
// origin never existed, which is surfaced as not-found.
func (s *Service) RemoveOrigin(ctx context.Context, userID, imageID string) error {
	if err := s.blobs.DeleteImageDir(ctx, userID, imageID); err != nil {
		return fmt.Errorf("delete image directory: %w", err)
	}
	count, err := s.index.RemoveWhere(ctx, ByImage(userID, imageID))
	if err != nil {
		return fmt.Errorf("remove image records: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("origin %s: %w", imageID, ErrNotFound)
	}
	s.log.Info().
		Str("user_id", userID).
		Str("image_id", imageID).
		Int64("records", count).
		Msg("origin removed")
	return nil
}

// RemoveSubimage deletes one resized variant, leaving the origin and the
// other subimages untouched.
func (s *Service) RemoveSubimage(ctx context.Context, userID, imageID, subimageID string) error {
	rec, err := s.index.FindOne(ctx, BySubimage(userID, imageID, subimageID))
	if err != nil {
		return err
	}
	if err := s.blobs.DeleteFile(ctx, userID, imageID, rec.Filename); err != nil {
		return fmt.Errorf("delete subimage file: %w", err)
	}
	if _, err := s.index.RemoveWhere(ctx, BySubimage(userID, imageID, subimageID)); err != nil {
		return fmt.Errorf("remove subimage record: %w", err)
	}
	s.log.Info().
		Str("user_id", userID).
		Str("image_id", imageID).
		Str("subimage_id", subimageID).
		Msg("subimage removed")
	return nil
}

// RemoveUser deletes everything stored for a user. A user with no data is a
// no-op success, so the operation is idempotent.
func (s *Service) RemoveUser(ctx context.Context, userID string) error {
	if err := s.blobs.DeleteUserDir(ctx, userID); err != nil {
		return fmt.Errorf("delete user directory: %w", err)
	}
	if _, err := s.index.RemoveWhere(ctx, ByUser(userID)); err != nil {
		return fmt.Errorf("remove user records: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("user data removed")
	return nil
}

// ResizeResult reports the outcome of a resize request.
type ResizeResult struct {
	ImageID    string
	SubimageID string
	Width      int
	Height     int
}

// ResizeNew stores a freshly uploaded image and immediately produces a
// resized variant of it.
func (s *Service) ResizeNew(ctx context.Context, userID string, data []byte, width, height int) (*ResizeResult, error) {
	imageID, err := s.AddOrigin(ctx, userID, data)
	if err != nil {
		return nil, err
	}
	return s.resizeAndStore(ctx, userID, imageID, data, width, height)
}

// ResizeExisting produces a new resized variant from an already stored origin.
func (s *Service) ResizeExisting(ctx context.Context, userID, imageID string, width, height int) (*ResizeResult, error) {
	data, err := s.GetOrigin(ctx, userID, imageID)
	if err != nil {
		return nil, err
	}
	return s.resizeAndStore(ctx, userID, imageID, data, width, height)
}

func (s *Service) resizeAndStore(ctx context.Context, userID, imageID string, data []byte, width, height int) (*ResizeResult, error) {
	resized, err := s.resizer.Resize(data, width, height)
	if err != nil {
		return nil, err
	}
	meta := Meta{"width": width, "height": height}
	subimageID, err := s.AddSubimage(ctx, userID, imageID, resized, meta)
	if err != nil {
		return nil, err
	}
	return &ResizeResult{
		ImageID:    imageID,
		SubimageID: subimageID,
		Width:      width,
		Height:     height,
	}, nil
}

func (s *Service) validateUpload(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("image is empty: %w", ErrInvalidImage)
	}
	if int64(len(data)) > s.cfg.MaxImageBytes {
		return fmt.Errorf("image exceeds max size of %d bytes: %w", s.cfg.MaxImageBytes, ErrInvalidImage)
	}
	mimeType := mimetype.Detect(data).String()
	if _, ok := allowedMIMEs[mimeType]; !ok {
		return fmt.Errorf("unsupported mime type %s: %w", mimeType, ErrInvalidImage)
	}
	return nil
}

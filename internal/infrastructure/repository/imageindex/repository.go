// Package imageindex implements the metadata index over a GORM-backed table.
// The index is queried by composite equality filters only; no record is ever
// updated in place.
package imageindex

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	domain "resize-server/internal/domain/image"
	"resize-server/internal/infrastructure/database/entities"
	"resize-server/internal/utils/platformerrors"
)

// Repository handles image record persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a new record. A unique constraint violation surfaces as
// ErrDuplicateImage: the index is the last line of de-duplication when two
// writers race past the directory existence check.
func (r *Repository) Insert(ctx context.Context, rec domain.Record) error {
	entity := entities.ImageRecord{
		UserID:     rec.UserID,
		ImageID:    rec.ImageID,
		SubimageID: rec.SubimageID,
		Origin:     rec.Origin,
		Filename:   rec.Filename,
		Timestamp:  rec.Timestamp,
		Meta:       rec.Meta,
	}
	err := r.db.WithContext(ctx).Create(&entity).Error
	if err != nil {
		if isDuplicateKey(err) {
			return platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeConflict,
				"image record already exists",
				domain.ErrDuplicateImage,
				"4c1f9e2a-7b3d-4e8f-9a0b-5d6e7f8a9b0c",
			)
		}
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to insert image record",
			err,
			"8e2a4c6f-1b3d-4f5a-8c9e-0d1f2a3b4c5d",
		)
	}
	return nil
}

// FindOne resolves exactly one record. Zero matches is NotFound; more than
// one is an ambiguity fault that must be detected, never silently resolved by
// picking a row.
func (r *Repository) FindOne(ctx context.Context, f domain.Filter) (domain.Record, error) {
	var rows []entities.ImageRecord
	err := r.applyFilter(ctx, f).Limit(2).Find(&rows).Error
	if err != nil {
		return domain.Record{}, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to query image record",
			err,
			"2f4a6c8e-3d5b-4a7c-9e1f-6b8d0a2c4e6f",
		)
	}
	switch len(rows) {
	case 0:
		return domain.Record{}, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound,
			"image record not found",
			domain.ErrNotFound,
			"6a8c0e2f-5b7d-4c9a-8e0f-1d3b5a7c9e0b",
		)
	case 1:
		return mapEntity(rows[0]), nil
	default:
		return domain.Record{}, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeTooManyRecords,
			"more than one image record matches",
			domain.ErrAmbiguousRecord,
			"0b2d4f6a-9c1e-4d3b-a5c7-8e0a2c4d6f8a",
		)
	}
}

// FindMany returns every matching record. Order is not guaranteed.
func (r *Repository) FindMany(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	var rows []entities.ImageRecord
	err := r.applyFilter(ctx, f).Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list image records",
			err,
			"3e5a7c9b-1d4f-4b6a-8c0e-2f4a6b8c0d2e",
		)
	}
	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, mapEntity(row))
	}
	return records, nil
}

// RemoveWhere deletes every matching record and returns the count. Zero is a
// valid outcome here; callers that require the target to pre-exist translate
// it themselves.
func (r *Repository) RemoveWhere(ctx context.Context, f domain.Filter) (int64, error) {
	res := r.applyFilter(ctx, f).Delete(&entities.ImageRecord{})
	if res.Error != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to remove image records",
			res.Error,
			"7c9e1b3d-5f7a-4c8e-9b0d-4a6c8e0b2d4f",
		)
	}
	return res.RowsAffected, nil
}

func (r *Repository) applyFilter(ctx context.Context, f domain.Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&entities.ImageRecord{}).Where("user_id = ?", f.UserID)
	if f.ImageID != nil {
		q = q.Where("image_id = ?", *f.ImageID)
	}
	if f.SubimageID != nil {
		q = q.Where("subimage_id = ?", *f.SubimageID)
	}
	if f.Origin != nil {
		q = q.Where("origin = ?", *f.Origin)
	}
	return q
}

func mapEntity(entity entities.ImageRecord) domain.Record {
	return domain.Record{
		UserID:     entity.UserID,
		ImageID:    entity.ImageID,
		SubimageID: entity.SubimageID,
		Origin:     entity.Origin,
		Filename:   entity.Filename,
		Timestamp:  entity.Timestamp,
		Meta:       entity.Meta,
	}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// The sqlite dialector does not translate constraint errors.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

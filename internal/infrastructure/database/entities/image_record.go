package entities

import "time"

// ImageRecord is the persisted metadata row for one stored file.
//
// Origin rows keep SubimageID empty rather than NULL so the composite unique
// index enforces "one origin per (user, image)" and "one subimage per hash"
// with a single constraint.
type ImageRecord struct {
	ID         uint           `gorm:"primaryKey;autoIncrement"`
	UserID     string         `gorm:"type:varchar(128);not null;uniqueIndex:idx_user_image_sub,priority:1;index:idx_user"`
	ImageID    string         `gorm:"type:char(64);not null;uniqueIndex:idx_user_image_sub,priority:2"`
	SubimageID string         `gorm:"type:char(64);not null;default:'';uniqueIndex:idx_user_image_sub,priority:3"`
	Origin     bool           `gorm:"not null"`
	Filename   string         `gorm:"type:varchar(64);not null"`
	Timestamp  time.Time      `gorm:"not null"`
	Meta       map[string]any `gorm:"serializer:json"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
}

func (ImageRecord) TableName() string {
	return "image_records"
}

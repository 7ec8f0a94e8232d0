package responses

import (
	"fmt"
	"time"

	domain "resize-server/internal/domain/image"
)

// ImageResponse reports a completed resize.
type ImageResponse struct {
	Error        int    `json:"error"`
	UserID       string `json:"user_id"`
	ImageID      string `json:"image_id"`
	SubimageID   string `json:"subimage_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	SubimageLink string `json:"subimage_link"`
}

// BuildImageResponse creates a response from a resize result.
func BuildImageResponse(userID string, res *domain.ResizeResult) *ImageResponse {
	return &ImageResponse{
		UserID:       userID,
		ImageID:      res.ImageID,
		SubimageID:   res.SubimageID,
		Width:        res.Width,
		Height:       res.Height,
		SubimageLink: subimageLink(userID, res.ImageID, res.SubimageID),
	}
}

// ListResponse wraps a record listing.
type ListResponse struct {
	Error int         `json:"error"`
	List  []ListEntry `json:"list"`
}

// ListEntry is one projected record in a listing.
type ListEntry struct {
	ImageID    string    `json:"image_id"`
	SubimageID string    `json:"subimage_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Link       string    `json:"link"`
}

// BuildOriginList projects origin records into list entries with links.
func BuildOriginList(userID string, records []domain.Record) *ListResponse {
	list := make([]ListEntry, 0, len(records))
	for _, rec := range records {
		list = append(list, ListEntry{
			ImageID:   rec.ImageID,
			Timestamp: rec.Timestamp,
			Link:      originLink(userID, rec.ImageID),
		})
	}
	return &ListResponse{List: list}
}

// BuildSubimageList projects subimage records into list entries with declared
// dimensions and links.
func BuildSubimageList(userID string, records []domain.Record) *ListResponse {
	list := make([]ListEntry, 0, len(records))
	for _, rec := range records {
		list = append(list, ListEntry{
			ImageID:    rec.ImageID,
			SubimageID: rec.SubimageID,
			Timestamp:  rec.Timestamp,
			Width:      rec.Meta.Width(),
			Height:     rec.Meta.Height(),
			Link:       subimageLink(userID, rec.ImageID, rec.SubimageID),
		})
	}
	return &ListResponse{List: list}
}

// StatusResponse reports a completed operation with no payload.
type StatusResponse struct {
	Error int `json:"error"`
}

func originLink(userID, imageID string) string {
	return fmt.Sprintf("/image/%s/%s/", userID, imageID)
}

func subimageLink(userID, imageID, subimageID string) string {
	return fmt.Sprintf("/image/%s/%s/%s/", userID, imageID, subimageID)
}

package requests

// CreateImageRequest represents a resize request. Exactly one of Image
// (base64 payload for a new upload) or ImageID (existing origin) must be set.
// Width and height arrive as strings and must parse to integers.
type CreateImageRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Width   string `json:"width" binding:"required"`
	Height  string `json:"height" binding:"required"`
	Image   string `json:"image"`
	ImageID string `json:"image_id"`
}

// DeleteImageRequest represents a cascading delete request. SubimageID
// requires ImageID; with only UserID set the whole namespace is removed.
type DeleteImageRequest struct {
	UserID     string `json:"user_id" binding:"required"`
	ImageID    string `json:"image_id"`
	SubimageID string `json:"subimage_id"`
}

package image

import "time"

// Record is the metadata stored for every persisted file, origin or subimage.
type Record struct {
	UserID     string    `json:"user_id"`
	ImageID    string    `json:"image_id"`
	SubimageID string    `json:"subimage_id,omitempty"`
	Origin     bool      `json:"origin"`
	Filename   string    `json:"filename"`
	Timestamp  time.Time `json:"timestamp"`
	Meta       Meta      `json:"meta,omitempty"`
}

// Meta carries subimage attributes, declared resize dimensions at minimum.
type Meta map[string]any

// Width returns the declared width, 0 when absent.
func (m Meta) Width() int {
	return m.intValue("width")
}

// Height returns the declared height, 0 when absent.
func (m Meta) Height() int {
	return m.intValue("height")
}

func (m Meta) intValue(key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Filter is a set of equality constraints for index lookups. Nil pointer
// fields are unconstrained. Origin rows store an empty subimage ID, so a
// pointer to the empty string pins the lookup to the origin record.
type Filter struct {
	UserID     string
	ImageID    *string
	SubimageID *string
	Origin     *bool
}

// ByUser matches every record in a user namespace.
func ByUser(userID string) Filter {
	return Filter{UserID: userID}
}

// ByImage matches every record under one image ID, origin and subimages alike.
func ByImage(userID, imageID string) Filter {
	return Filter{UserID: userID, ImageID: &imageID}
}

// ByOrigin matches exactly the origin record of an image.
func ByOrigin(userID, imageID string) Filter {
	origin := true
	empty := ""
	return Filter{UserID: userID, ImageID: &imageID, SubimageID: &empty, Origin: &origin}
}

// BySubimage matches exactly one subimage record.
func BySubimage(userID, imageID, subimageID string) Filter {
	origin := false
	return Filter{UserID: userID, ImageID: &imageID, SubimageID: &subimageID, Origin: &origin}
}

// OriginsOf matches all origin records of a user.
func OriginsOf(userID string) Filter {
	origin := true
	return Filter{UserID: userID, Origin: &origin}
}

// SubimagesOf matches all subimage records under one image.
func SubimagesOf(userID, imageID string) Filter {
	origin := false
	return Filter{UserID: userID, ImageID: &imageID, Origin: &origin}
}

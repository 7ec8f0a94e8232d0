// Package transform implements the image resize collaborator.
package transform

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	domain "resize-server/internal/domain/image"
)

// Resizer produces resized variants of stored images. Output is always JPEG
// regardless of the input format.
type Resizer struct {
	log zerolog.Logger
}

func NewResizer(log zerolog.Logger) *Resizer {
	return &Resizer{
		log: log.With().Str("component", "resizer").Logger(),
	}
}

// Resize decodes the image, scales it to exactly width x height and
// re-encodes it. Dimensions are validated before any decoding happens.
func (r *Resizer) Resize(data []byte, width, height int) ([]byte, error) {
	if width <= 1 {
		return nil, fmt.Errorf("width must be an integer greater than 1: %w", domain.ErrInvalidDimensions)
	}
	if height <= 1 {
		return nil, fmt.Errorf("height must be an integer greater than 1: %w", domain.ErrInvalidDimensions)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := imaging.Resize(img, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}

	r.log.Debug().
		Int("width", width).
		Int("height", height).
		Int("bytes", buf.Len()).
		Msg("image resized")
	return buf.Bytes(), nil
}

package transform_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"testing"

	"github.com/rs/zerolog"

	domain "resize-server/internal/domain/image"
	"resize-server/internal/infrastructure/transform"
)

func fixturePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture png: %v", err)
	}
	return buf.Bytes()
}

func TestResize_ExactDimensions(t *testing.T) {
	r := transform.NewResizer(zerolog.Nop())
	src := fixturePNG(t, 100, 120)

	cases := []struct {
		name          string
		width, height int
	}{
		{"downscale", 50, 60},
		{"upscale", 200, 240},
		{"changed aspect ratio", 80, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := r.Resize(src, tc.width, tc.height)
			if err != nil {
				t.Fatalf("Resize(%dx%d) error = %v", tc.width, tc.height, err)
			}
			decoded, format, err := image.Decode(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("decode output: %v", err)
			}
			if format != "jpeg" {
				t.Errorf("output format = %s, want jpeg", format)
			}
			bounds := decoded.Bounds()
			if bounds.Dx() != tc.width || bounds.Dy() != tc.height {
				t.Errorf("output is %dx%d, want exactly %dx%d", bounds.Dx(), bounds.Dy(), tc.width, tc.height)
			}
		})
	}
}

func TestResize_InvalidDimensions(t *testing.T) {
	r := transform.NewResizer(zerolog.Nop())

	cases := []struct {
		name          string
		width, height int
	}{
		{"zero width", 0, 50},
		{"zero height", 50, 0},
		{"one pixel width", 1, 50},
		{"one pixel height", 50, 1},
		{"negative width", -10, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Garbage bytes prove validation happens before decoding.
			_, err := r.Resize([]byte("not an image"), tc.width, tc.height)
			if !errors.Is(err, domain.ErrInvalidDimensions) {
				t.Errorf("Resize(%dx%d) error = %v, want ErrInvalidDimensions", tc.width, tc.height, err)
			}
		})
	}
}

func TestResize_UndecodableInput(t *testing.T) {
	r := transform.NewResizer(zerolog.Nop())

	_, err := r.Resize([]byte("definitely not pixels"), 50, 50)
	if err == nil {
		t.Fatal("Resize() accepted undecodable bytes")
	}
	if errors.Is(err, domain.ErrInvalidDimensions) {
		t.Errorf("decode failure misreported as dimension error: %v", err)
	}
}

func TestResize_Deterministic(t *testing.T) {
	r := transform.NewResizer(zerolog.Nop())
	src := fixturePNG(t, 64, 64)

	first, err := r.Resize(src, 32, 32)
	if err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	second, err := r.Resize(src, 32, 32)
	if err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical input and dimensions produced different bytes; content IDs would diverge")
	}
}

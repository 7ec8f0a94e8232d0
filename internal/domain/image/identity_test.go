package image_test

import (
	"testing"

	image "resize-server/internal/domain/image"
)

func TestContentID_Deterministic(t *testing.T) {
	data := []byte("some image bytes")

	first := image.ContentID("u1", data)
	second := image.ContentID("u1", data)

	if first != second {
		t.Errorf("ContentID() not deterministic: %s != %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("ContentID() length = %d, want 64 hex chars", len(first))
	}
}

func TestContentID_DistinctBytes(t *testing.T) {
	a := image.ContentID("u1", []byte("first"))
	b := image.ContentID("u1", []byte("second"))

	if a == b {
		t.Errorf("ContentID() collided for distinct bytes: %s", a)
	}
}

func TestContentID_IgnoresUser(t *testing.T) {
	data := []byte("shared bytes")

	a := image.ContentID("u1", data)
	b := image.ContentID("u2", data)

	if a != b {
		t.Errorf("ContentID() differs across users: %s != %s; isolation comes from storage paths", a, b)
	}
}

package imagename_test

import (
	"strings"
	"testing"

	"resize-server/utils/imagename"
)

func TestNewOrigin(t *testing.T) {
	name := imagename.NewOrigin()
	if !strings.HasPrefix(name, "origin_") || !strings.HasSuffix(name, ".img") {
		t.Errorf("NewOrigin() = %q, want origin_<id>.img", name)
	}
	if !imagename.IsOrigin(name) {
		t.Errorf("IsOrigin(%q) = false", name)
	}
}

func TestNewSubimage(t *testing.T) {
	name := imagename.NewSubimage()
	if !strings.HasPrefix(name, "subimage_") || !strings.HasSuffix(name, ".img") {
		t.Errorf("NewSubimage() = %q, want subimage_<id>.img", name)
	}
	if imagename.IsOrigin(name) {
		t.Errorf("IsOrigin(%q) = true for a subimage name", name)
	}
}

func TestNames_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		name := imagename.NewOrigin()
		if seen[name] {
			t.Fatalf("duplicate filename generated: %s", name)
		}
		seen[name] = true
	}
}

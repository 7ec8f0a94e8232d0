// Package imagename generates random on-disk filenames for stored images.
// Names are random rather than content-derived so that the same content hash
// can be written under different names over time without colliding.
package imagename

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyOnce sync.Once
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

func newULID() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return strings.ToLower(id.String())
}

// NewOrigin returns a filename for an original upload.
func NewOrigin() string {
	return "origin_" + newULID() + ".img"
}

// NewSubimage returns a filename for a resized variant.
func NewSubimage() string {
	return "subimage_" + newULID() + ".img"
}

// IsOrigin reports whether the filename was generated for an original upload.
func IsOrigin(name string) bool {
	return strings.HasPrefix(name, "origin_")
}

package image

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentID derives the stable identifier for stored bytes. The user ID is
// accepted for interface symmetry but is not mixed into the hash: identical
// bytes yield identical IDs across users, and isolation comes from the
// user-scoped storage layout instead.
func ContentID(userID string, data []byte) string {
	_ = userID
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

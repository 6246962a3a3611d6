package store

import (
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// ContentHash returns the hex xxh3 digest of parts. Cached results are
// reused only while the hash of the file and of the lint settings match.
func ContentHash(parts ...[]byte) string {
	h := xxh3.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint returns a hex BLAKE2b-256 digest over parts. Each part is
// length-prefixed so that ("ab","c") and ("a","bc") differ.
func Fingerprint(parts ...[]byte) string {
	h, _ := blake2b.New256(nil)
	var size [8]byte
	for _, p := range parts {
		n := uint64(len(p))
		for i := range size {
			size[i] = byte(n >> (8 * i))
		}
		h.Write(size[:])
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

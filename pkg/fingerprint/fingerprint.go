// Package fingerprint derives short, non-reversible identifiers for secret
// values so they can be compared across machines without being printed.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
)

// ShortLen is the number of hex characters Short keeps.
const ShortLen = 12

type Hasher struct {
	h hash.Hash
}

func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

func (h *Hasher) Write(p []byte) (n int, err error) {
	return h.h.Write(p)
}

func (h *Hasher) Sum() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Short returns the first ShortLen hex characters of the SHA-256 of data,
// prefixed with the algorithm name.
func Short(data []byte) string {
	return "sha256:" + SHA256(data)[:ShortLen]
}

func Verify(data []byte, expected string) error {
	actual := SHA256(data)
	if actual != expected {
		return fmt.Errorf("fingerprint mismatch: expected %s, got %s", expected, actual)
	}
	return nil
}

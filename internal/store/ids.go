package store

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// newRandomID returns prefix-<suffix> where suffix is 8 chars of base32 (lowercase, no padding).
func newRandomID(prefix string) (string, error) {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	suffix := strings.ToLower(enc.EncodeToString(b[:]))
	return prefix + "-" + suffix, nil
}

// NewCollectionID returns a fresh "coll-xxxxxxxx" id.
func NewCollectionID() (string, error) {
	return newRandomID("coll")
}

package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the 10 salt rounds existing digests were created with.
const DefaultCost = 10

// maxPasswordBytes is the bcrypt input limit. Longer input is cut to it, the
// same way existing digests were produced.
const maxPasswordBytes = 72

func truncate(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher creates a hasher. A cost of zero selects DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost == 0 {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt digest of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(truncate(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest. A mismatch is not an error.
func (h *Hasher) Verify(plain, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), truncate(plain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, err
}

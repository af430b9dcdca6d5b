package accounts

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var legacyDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Hasher turns passwords into stored hashes and checks them. Hashes written
// by the legacy scheme (hex SHA-256, unsalted) always verify regardless of
// the configured scheme.
type Hasher struct {
	Legacy bool
	Cost   int
}

func legacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func (h Hasher) Hash(password string) (string, error) {
	if h.Legacy {
		return legacyHash(password), nil
	}
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h Hasher) Verify(stored, password string) bool {
	if IsLegacyHash(stored) {
		return subtle.ConstantTimeCompare([]byte(stored), []byte(legacyHash(password))) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// NeedsUpgrade reports whether a verified hash should be rewritten with the
// configured scheme.
func (h Hasher) NeedsUpgrade(stored string) bool {
	return !h.Legacy && IsLegacyHash(stored)
}

func IsLegacyHash(stored string) bool {
	return legacyDigest.MatchString(stored)
}

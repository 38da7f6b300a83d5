package password

import (
	"golang.org/x/crypto/bcrypt"
)

const schemeBcrypt = "bcrypt"

// verifyBcrypt checks a legacy bcrypt hash. A match always returns an
// Argon2id replacement so stored bcrypt hashes migrate on next use.
// Mismatches and corrupt bcrypt strings are both reported as no match.
func (a *Argon2) verifyBcrypt(secret, encodedHash string) (bool, string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(secret)); err != nil {
		return false, "", nil
	}

	upgraded, err := a.Hash(secret)
	if err != nil {
		return false, "", err
	}
	return true, upgraded, nil
}

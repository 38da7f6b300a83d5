package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
)

const randomTokenSize = 32

// NewRandomToken returns 256 bits of crypto/rand output, base64url encoded
// without padding.
func NewRandomToken() (string, error) {
	var raw [randomTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// HashToken returns the hex SHA-256 digest of raw. It is deterministic so the
// digest can be used as an equality lookup key.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewNumericCode returns a number drawn uniformly from [10^(digits-1), 10^digits-1].
// rand.Int rejects out-of-range samples internally, so low values are not favored.
func NewNumericCode(digits int) (int64, error) {
	if digits < 4 || digits > 10 {
		return 0, errors.New("invalid code digits")
	}

	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits-1)), nil)
	span := new(big.Int).Sub(new(big.Int).Mul(low, big.NewInt(10)), low)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, err
	}
	return n.Add(n, low).Int64(), nil
}

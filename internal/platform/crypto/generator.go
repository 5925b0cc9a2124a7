package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

const nonceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSecureRandomString creates a cryptographically secure random string.
// n is the number of bytes of randomness; the resulting string is longer due
// to base64 encoding.
func GenerateSecureRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// GenerateNonce creates a random alphanumeric string of length n, suitable
// for OAuth state parameters where the value must survive URL transport
// without escaping.
func GenerateNonce(n int) (string, error) {
	max := big.NewInt(int64(len(nonceAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = nonceAlphabet[idx.Int64()]
	}
	return string(b), nil
}

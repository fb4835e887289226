package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// MinHMACKeySize is the shortest accepted HMAC secret.
const MinHMACKeySize = 32

// Signer computes HMAC-SHA256 integrity tags over card fields.
type Signer struct {
	key []byte
}

func NewSigner(key []byte) (*Signer, error) {
	if len(key) < MinHMACKeySize {
		return nil, fmt.Errorf("hmac key must be at least %d bytes", MinHMACKeySize)
	}
	return &Signer{key: key}, nil
}

// Sign returns the hex tag over parts joined with "|".
func (s *Signer) Sign(parts ...string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Signer) Verify(tag string, parts ...string) bool {
	return hmac.Equal([]byte(tag), []byte(s.Sign(parts...)))
}

package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"banking-core/internal/cardnum"
	"banking-core/internal/model"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32
	// CVVLength is the number of digits in a card verification value.
	CVVLength = 3

	delimiter = ":"
)

// CVVCipher encrypts CVVs with AES-256-CBC. Each call draws a fresh IV which
// is stored hex-encoded in front of the ciphertext: hex(iv):hex(ciphertext).
type CVVCipher struct {
	block cipher.Block
	rand  io.Reader
}

// NewCVVCipher creates a cipher over a 32-byte key.
func NewCVVCipher(key []byte) (*CVVCipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("cvv key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init aes cipher: %w", err)
	}
	return &CVVCipher{block: block, rand: rand.Reader}, nil
}

// ParseKey accepts either 64 hex characters or a raw 32-byte string.
func ParseKey(s string) ([]byte, error) {
	if len(s) == 2*KeySize {
		if key, err := hex.DecodeString(s); err == nil {
			return key, nil
		}
	}
	if len(s) == KeySize {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("cvv key must be %d raw bytes or %d hex characters", KeySize, 2*KeySize)
}

func (c *CVVCipher) Encrypt(cvv string) (string, error) {
	if !isCVV(cvv) {
		return "", fmt.Errorf("%w: cvv must be %d digits", model.ErrInvalidInput, CVVLength)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(c.rand, iv); err != nil {
		return "", fmt.Errorf("failed to generate iv: %w", err)
	}

	plaintext := pad([]byte(cvv), aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ciphertext, plaintext)

	return hex.EncodeToString(iv) + delimiter + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. Any structural problem, bad padding, or a
// plaintext that is not a CVV yields model.ErrDecryption.
func (c *CVVCipher) Decrypt(encrypted string) (string, error) {
	parts := strings.Split(encrypted, delimiter)
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: missing iv delimiter", model.ErrDecryption)
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: invalid iv", model.ErrDecryption)
	}
	ciphertext, err := hex.DecodeString(parts[1])
	if err != nil || len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: invalid ciphertext", model.ErrDecryption)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, err = unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrDecryption, err)
	}
	if !isCVV(string(plaintext)) {
		return "", fmt.Errorf("%w: unexpected plaintext", model.ErrDecryption)
	}
	return string(plaintext), nil
}

// GenerateCVV returns three uniformly random digits.
func GenerateCVV() (string, error) {
	b := make([]byte, CVVLength)
	for i := range b {
		d, err := cardnum.RandomDigit()
		if err != nil {
			return "", fmt.Errorf("failed to generate cvv: %w", err)
		}
		b[i] = '0' + byte(d)
	}
	return string(b), nil
}

func isCVV(s string) bool {
	if len(s) != CVVLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// PKCS#7
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}

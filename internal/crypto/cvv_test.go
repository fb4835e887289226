package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"banking-core/internal/model"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestCipher(t *testing.T) *CVVCipher {
	t.Helper()
	c, err := NewCVVCipher(testKey)
	require.NoError(t, err)
	return c
}

func TestCVVRoundTripAllValues(t *testing.T) {
	c := newTestCipher(t)

	for i := 0; i < 1000; i++ {
		cvv := fmt.Sprintf("%03d", i)
		enc, err := c.Encrypt(cvv)
		require.NoError(t, err)

		dec, err := c.Decrypt(enc)
		require.NoError(t, err)
		require.Equal(t, cvv, dec)
	}
}

func TestEncryptUsesFreshIV(t *testing.T) {
	c := newTestCipher(t)

	a, err := c.Encrypt("123")
	require.NoError(t, err)
	b, err := c.Encrypt("123")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	ivHex := strings.Split(a, delimiter)[0]
	assert.Len(t, ivHex, 32)
}

func TestEncryptRejectsNonCVV(t *testing.T) {
	c := newTestCipher(t)
	for _, in := range []string{"", "12", "1234", "12a"} {
		_, err := c.Encrypt(in)
		assert.ErrorIs(t, err, model.ErrInvalidInput, in)
	}
}

func TestDecryptMalformed(t *testing.T) {
	c := newTestCipher(t)
	valid, err := c.Encrypt("987")
	require.NoError(t, err)
	parts := strings.Split(valid, delimiter)

	ct, err := hex.DecodeString(parts[1])
	require.NoError(t, err)
	ct[len(ct)-1] ^= 0xff
	tampered := parts[0] + delimiter + hex.EncodeToString(ct)

	cases := map[string]string{
		"no delimiter":     parts[0] + parts[1],
		"extra delimiter":  valid + delimiter + "00",
		"short iv":         parts[0][:30] + delimiter + parts[1],
		"bad iv hex":       strings.Repeat("zz", 16) + delimiter + parts[1],
		"empty ciphertext": parts[0] + delimiter,
		"partial block":    parts[0] + delimiter + parts[1][:30],
		"tampered":         tampered,
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := c.Decrypt(in)
			assert.ErrorIs(t, err, model.ErrDecryption)
		})
	}
}

func TestDecryptWithOtherKeyFails(t *testing.T) {
	enc, err := newTestCipher(t).Encrypt("555")
	require.NoError(t, err)

	other, err := NewCVVCipher([]byte("ffffffffffffffffffffffffffffffff"))
	require.NoError(t, err)

	_, err = other.Decrypt(enc)
	assert.ErrorIs(t, err, model.ErrDecryption)
}

func TestParseKey(t *testing.T) {
	raw, err := ParseKey(string(testKey))
	require.NoError(t, err)
	assert.Equal(t, testKey, raw)

	hexKey := hex.EncodeToString(testKey)
	decoded, err := ParseKey(hexKey)
	require.NoError(t, err)
	assert.Equal(t, testKey, decoded)

	_, err = ParseKey("short")
	assert.Error(t, err)

	_, err = NewCVVCipher([]byte("short"))
	assert.Error(t, err)
}

func TestGenerateCVV(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 300; i++ {
		cvv, err := GenerateCVV()
		require.NoError(t, err)
		require.True(t, isCVV(cvv), cvv)
		seen[cvv] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestSigner(t *testing.T) {
	s, err := NewSigner([]byte(strings.Repeat("k", MinHMACKeySize)))
	require.NoError(t, err)

	tag := s.Sign("4111111111111111", "2029-01-01", "enc")
	assert.True(t, s.Verify(tag, "4111111111111111", "2029-01-01", "enc"))
	assert.False(t, s.Verify(tag, "4111111111111111", "2029-01-01", "other"))

	_, err = NewSigner([]byte("short"))
	assert.Error(t, err)
}

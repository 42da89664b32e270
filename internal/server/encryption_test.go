package server

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	encoded, err := GenerateKey()
	require.NoError(t, err)
	key, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	require.Len(t, key, 32)
	return key
}

func TestNewCookieCipher(t *testing.T) {
	tests := []struct {
		name        string
		key         []byte
		wantEnabled bool
		wantErr     bool
	}{
		{name: "no key disables encryption", key: nil},
		{name: "32 byte key", key: make([]byte, 32), wantEnabled: true},
		{name: "short key", key: make([]byte, 16), wantErr: true},
		{name: "long key", key: make([]byte, 33), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCookieCipher(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "32 bytes")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEnabled, c.Enabled())
		})
	}
}

func TestCookieCipher_RoundTrip(t *testing.T) {
	c, err := NewCookieCipher(testKey(t))
	require.NoError(t, err)

	const token = "0123456789abcdef0123456789abcdef01234567"

	first, err := c.Encrypt(token)
	require.NoError(t, err)
	second, err := c.Encrypt(token)
	require.NoError(t, err)

	assert.NotEqual(t, token, first)
	assert.NotEqual(t, first, second, "nonce must differ per encryption")
	assert.NotContains(t, first, "=", "cookie values use unpadded base64")

	plain, err := c.Decrypt(first)
	require.NoError(t, err)
	assert.Equal(t, token, plain)
}

func TestCookieCipher_Disabled(t *testing.T) {
	c, err := NewCookieCipher(nil)
	require.NoError(t, err)

	out, err := c.Encrypt("token")
	require.NoError(t, err)
	assert.Equal(t, "token", out)

	out, err = c.Decrypt("token")
	require.NoError(t, err)
	assert.Equal(t, "token", out)
}

func TestCookieCipher_DecryptErrors(t *testing.T) {
	key := testKey(t)
	c, err := NewCookieCipher(key)
	require.NoError(t, err)

	sealed, err := c.Encrypt("token")
	require.NoError(t, err)

	otherKey := testKey(t)
	other, err := NewCookieCipher(otherKey)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	tests := []struct {
		name   string
		cipher *CookieCipher
		value  string
		is     error
	}{
		{name: "not base64", cipher: c, value: "!!!" + strings.Repeat("x", 10)},
		{name: "too short", cipher: c, value: base64.RawURLEncoding.EncodeToString([]byte("abc")), is: ErrCiphertextTooShort},
		{name: "tampered", cipher: c, value: tampered},
		{name: "wrong key", cipher: other, value: sealed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cipher.Decrypt(tt.value)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	key := GenerateRandBytes(KeySize)
	plaintext := []byte(`{"token":"abc","refreshToken":"def"}`)

	ciphertext, nonce, err := Seal(plaintext, key)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, ciphertext)

	got, err := Open(ciphertext, nonce, key)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestOpen_WrongKeyFails(t *testing.T) {
	key := GenerateRandBytes(KeySize)
	ciphertext, nonce, err := Seal([]byte("secret"), key)
	require.NoError(t, err)

	_, err = Open(ciphertext, nonce, GenerateRandBytes(KeySize))
	require.Error(t, err)
}

func TestOpen_TamperedCiphertextFails(t *testing.T) {
	key := GenerateRandBytes(KeySize)
	ciphertext, nonce, err := Seal([]byte("secret"), key)
	require.NoError(t, err)

	ciphertext[0] ^= 0xff
	_, err = Open(ciphertext, nonce, key)
	require.Error(t, err)
}

func TestDeriveDataKey_Deterministic(t *testing.T) {
	secret := []byte("machine-secret")
	salt := []byte("fixed-salt-16byt")

	a := DeriveDataKey(secret, salt)
	b := DeriveDataKey(secret, salt)
	require.Equal(t, a, b)
	require.Len(t, a, KeySize)

	c := DeriveDataKey(secret, []byte("another-salt-16b"))
	require.NotEqual(t, a, c)
}

func TestGenerateRandBytes(t *testing.T) {
	a := GenerateRandBytes(32)
	b := GenerateRandBytes(32)
	require.Len(t, a, 32)
	require.False(t, bytes.Equal(a, b))
}

func TestWipe(t *testing.T) {
	buf := []byte("password")
	Wipe(buf)
	require.Equal(t, make([]byte, 8), buf)
	require.NotPanics(t, func() { Wipe(nil) })
}

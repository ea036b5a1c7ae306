package session

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"coinrush-client/internal/cryptox"
)

// secretItemKey is the item name of the store secret inside the OS keyring.
const secretItemKey = "coinrush-store-secret"

// KeySource supplies the secret from which the store's data key is derived.
type KeySource interface {
	// Secret returns the store secret, creating it on first use. The
	// underlying secret service is acquired for the duration of the call
	// only; no handle is kept open between calls.
	Secret() ([]byte, error)
}

// KeyringSource keeps the store secret in the platform keyring
// (Keychain, Credential Manager, Secret Service), falling back to the
// keyring's encrypted file backend where no platform service exists.
type KeyringSource struct {
	service string
	fileDir string

	// open is a seam for tests; defaults to keyring.Open.
	open func(cfg keyring.Config) (keyring.Keyring, error)
}

// NewKeyringSource builds a KeyringSource for the given service name.
// fileDir is where the file backend keeps its encrypted items.
func NewKeyringSource(service, fileDir string) *KeyringSource {
	return &KeyringSource{service: service, fileDir: fileDir, open: keyring.Open}
}

// NewKeyringSourceWith is like NewKeyringSource but with a custom opener,
// so tests can substitute an in-memory keyring.
func NewKeyringSourceWith(service string, open func(cfg keyring.Config) (keyring.Keyring, error)) *KeyringSource {
	return &KeyringSource{service: service, open: open}
}

func (k *KeyringSource) Secret() ([]byte, error) {
	ring, err := k.open(keyring.Config{
		ServiceName:      k.service,
		FileDir:          k.fileDir,
		FilePasswordFunc: keyring.FixedStringPrompt(k.service),
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}

	item, err := ring.Get(secretItemKey)
	if err == nil {
		// callers wipe the returned slice, so never hand out the
		// keyring's own backing array
		return append([]byte(nil), item.Data...), nil
	}
	if !errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("read store secret: %w", err)
	}

	secret := cryptox.GenerateRandBytes(cryptox.KeySize)
	if err := ring.Set(keyring.Item{
		Key:   secretItemKey,
		Label: "CoinRush session store secret",
		Data:  secret,
	}); err != nil {
		return nil, fmt.Errorf("write store secret: %w", err)
	}
	return append([]byte(nil), secret...), nil
}

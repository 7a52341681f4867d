package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const (
	serviceName = "inbox"

	// itemKey is the keyring entry holding the signed-in identity.
	itemKey = "signed-in-identity"
)

// OpenKeyring returns a keyring for the inbox service. fileDir is used by
// the encrypted-file backend when no OS keychain is available.
func OpenKeyring(fileDir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("inbox-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// KeyringProvider keeps the signed-in identity in a keyring.
type KeyringProvider struct {
	ring keyring.Keyring
}

// NewKeyringProvider wraps ring.
func NewKeyringProvider(ring keyring.Keyring) *KeyringProvider {
	return &KeyringProvider{ring: ring}
}

// Current implements Provider.
func (p *KeyringProvider) Current(context.Context) (string, bool, error) {
	item, err := p.ring.Get(itemKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading signed-in identity: %w", err)
	}
	if len(item.Data) == 0 {
		return "", false, nil
	}
	return string(item.Data), true, nil
}

// SignIn records id as the signed-in identity.
func (p *KeyringProvider) SignIn(id string) error {
	id, err := normalize(id)
	if err != nil {
		return err
	}

	err = p.ring.Set(keyring.Item{
		Key:   itemKey,
		Data:  []byte(id),
		Label: "inbox signed-in identity",
	})
	if err != nil {
		return fmt.Errorf("storing signed-in identity: %w", err)
	}
	return nil
}

// SignOut forgets the signed-in identity. Signing out twice is fine.
func (p *KeyringProvider) SignOut() error {
	err := p.ring.Remove(itemKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing signed-in identity: %w", err)
	}
	return nil
}

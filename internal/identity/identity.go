// Package identity tracks which account is signed in on this device.
package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyIdentity is returned when signing in with a blank identity.
var ErrEmptyIdentity = errors.New("identity must not be empty")

// Provider reports the current signed-in identity. ok is false when nobody
// is signed in; that is a normal state, not an error.
type Provider interface {
	Current(ctx context.Context) (id string, ok bool, err error)
}

// Static is a Provider with a fixed answer. The zero value means signed out.
type Static string

// Current implements Provider.
func (s Static) Current(context.Context) (string, bool, error) {
	return string(s), s != "", nil
}

// normalize trims an identity and rejects blanks.
func normalize(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrEmptyIdentity
	}
	return id, nil
}

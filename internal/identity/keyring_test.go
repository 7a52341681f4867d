package identity

import (
	"context"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringProvider(t *testing.T) {
	ctx := context.Background()
	p := NewKeyringProvider(keyring.NewArrayKeyring(nil))

	t.Run("signed out by default", func(t *testing.T) {
		id, ok, err := p.Current(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, id)
	})

	t.Run("sign in trims", func(t *testing.T) {
		require.NoError(t, p.SignIn("  ana@example.com "))
		id, ok, err := p.Current(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "ana@example.com", id)
	})

	t.Run("blank identity rejected", func(t *testing.T) {
		assert.ErrorIs(t, p.SignIn("   "), ErrEmptyIdentity)
		id, _, err := p.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ana@example.com", id)
	})

	t.Run("sign out is idempotent", func(t *testing.T) {
		require.NoError(t, p.SignOut())
		require.NoError(t, p.SignOut())
		_, ok, err := p.Current(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStatic(t *testing.T) {
	id, ok, err := Static("u1").Current(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "u1", id)

	_, ok, err = Static("").Current(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

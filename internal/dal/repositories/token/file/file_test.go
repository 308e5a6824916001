package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptedRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "token")
	r := NewTokenRepository(WithPath(path), WithSecret("hunter2"))

	token, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, r.Save(ctx, "eyJhbGciOi.payload.sig"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "payload")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOi.payload.sig", token)

	_, err = NewTokenRepository(WithPath(path), WithSecret("wrong")).Load(ctx)
	assert.Error(t, err)

	_, err = NewTokenRepository(WithPath(path), WithSecret("")).Load(ctx)
	assert.ErrorIs(t, err, ErrNoSecret)

	require.NoError(t, r.Clear(ctx))
	token, err = r.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.NoError(t, r.Clear(ctx))
}

func TestPlainTextFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "jwt_token.txt")
	require.NoError(t, os.WriteFile(path, []byte("legacy-token\n"), 0o600))

	r := NewTokenRepository(WithPath(path), WithSecret(""))
	token, err := r.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", token)

	require.NoError(t, r.Save(ctx, "next"))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "next", string(raw))

	// A store with a secret still reads files written before one was set.
	token, err = NewTokenRepository(WithPath(path), WithSecret("s")).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "next", token)
}

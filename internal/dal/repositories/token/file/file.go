package file

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

var magic = []byte("PAT1")

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32
)

var ErrNoSecret = errors.New("token file is encrypted but no secret is configured")

// TokenRepository keeps the session token in a single file, sealed with a
// key derived from the configured secret.
type TokenRepository struct {
	path   string
	secret []byte
}

// option is a function that configures the TokenRepository.
type option func(*TokenRepository)

// NewTokenRepository creates a file token store from token_store.path and
// PRINT_AGENT_ENCRYPTION_SECRET.
func NewTokenRepository(opts ...option) *TokenRepository {
	path := viper.GetString("token_store.path")
	if path == "" {
		path = "./jwt_token.txt"
	}

	r := &TokenRepository{
		path:   path,
		secret: []byte(os.Getenv("PRINT_AGENT_ENCRYPTION_SECRET")),
	}
	for _, opt := range opts {
		opt(r)
	}

	if len(r.secret) == 0 {
		slog.Warn("No encryption secret configured, token is stored in plain text", "path", r.path)
	}

	return r
}

// WithPath overrides token_store.path.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPath(path string) option {
	return func(r *TokenRepository) {
		r.path = path
	}
}

// WithSecret overrides the encryption secret.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithSecret(secret string) option {
	return func(r *TokenRepository) {
		r.secret = []byte(secret)
	}
}

// Load returns the stored token, or "" when the file does not exist.
// Plain-text files written without a secret are read as they are.
func (r *TokenRepository) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	if !bytes.HasPrefix(data, magic) {
		return strings.TrimSpace(string(data)), nil
	}
	if len(r.secret) == 0 {
		return "", ErrNoSecret
	}

	data = data[len(magic):]
	if len(data) < saltSize+nonceSize+secretbox.Overhead {
		return "", errors.New("token file is truncated")
	}

	salt := data[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], data[saltSize:saltSize+nonceSize])

	key, err := r.key(salt)
	if err != nil {
		return "", err
	}

	plain, ok := secretbox.Open(nil, data[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return "", errors.New("failed to decrypt token file: wrong secret or corrupted file")
	}

	return string(plain), nil
}

// Save replaces the stored token atomically.
func (r *TokenRepository) Save(_ context.Context, token string) error {
	data := []byte(token)

	if len(r.secret) > 0 {
		salt := make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("failed to generate salt: %w", err)
		}

		var nonce [nonceSize]byte
		if _, err := rand.Read(nonce[:]); err != nil {
			return fmt.Errorf("failed to generate nonce: %w", err)
		}

		key, err := r.key(salt)
		if err != nil {
			return err
		}

		sealed := append(bytes.Clone(magic), salt...)
		sealed = append(sealed, nonce[:]...)
		data = secretbox.Seal(sealed, data, &nonce, key)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	return nil
}

// Clear removes the token file.
func (r *TokenRepository) Clear(_ context.Context) error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}

	return nil
}

func (r *TokenRepository) key(salt []byte) (*[keySize]byte, error) {
	k, err := scrypt.Key(r.secret, salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive token key: %w", err)
	}

	var key [keySize]byte
	copy(key[:], k)

	return &key, nil
}

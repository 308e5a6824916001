package authsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Dongwon38/print-agent/internal/dal/interfaces/iorderapi"
	"github.com/Dongwon38/print-agent/internal/dal/interfaces/itokenstore"
	"github.com/Dongwon38/print-agent/internal/service/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

// AuthService obtains session tokens and mirrors them to durable storage.
type AuthService struct {
	api        iorderapi.IOrderAPI
	store      itokenstore.ITokenStore
	username   string
	password   string
	attempts   int
	retryDelay time.Duration
	now        func() time.Time
}

// option is a function that configures the AuthService.
type option func(*AuthService)

// MustNewAuthService creates a new AuthService. Credentials come from
// PRINT_AGENT_USERNAME and PRINT_AGENT_PASSWORD.
func MustNewAuthService(opts ...option) *AuthService {
	attempts := viper.GetInt("auth.login_attempts")
	if attempts <= 0 {
		attempts = 3
	}

	retrySeconds := viper.GetInt("auth.login_retry_seconds")
	if retrySeconds <= 0 {
		retrySeconds = 5
	}

	s := &AuthService{
		username:   os.Getenv("PRINT_AGENT_USERNAME"),
		password:   os.Getenv("PRINT_AGENT_PASSWORD"),
		attempts:   attempts,
		retryDelay: time.Duration(retrySeconds) * time.Second,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.api == nil {
		panic("auth service requires an order API")
	}
	if s.store == nil {
		panic("auth service requires a token store")
	}

	return s
}

// WithOrderAPI sets the order API used to log in.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderAPI(api iorderapi.IOrderAPI) option {
	return func(s *AuthService) {
		s.api = api
	}
}

// WithTokenStore sets the durable token store.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTokenStore(store itokenstore.ITokenStore) option {
	return func(s *AuthService) {
		s.store = store
	}
}

// WithCredentials overrides the credentials taken from the environment.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCredentials(username, password string) option {
	return func(s *AuthService) {
		s.username = username
		s.password = password
	}
}

// WithRetry overrides auth.login_attempts and auth.login_retry_seconds.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRetry(attempts int, delay time.Duration) option {
	return func(s *AuthService) {
		s.attempts = max(attempts, 1)
		s.retryDelay = delay
	}
}

// HasCredentials reports whether unattended login is possible.
func (s *AuthService) HasCredentials() bool {
	return s.username != "" && s.password != ""
}

// Login exchanges credentials for a token and persists it. Transient
// failures are retried; rejected credentials are not.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= s.attempts; attempt++ {
		token, err := s.api.Login(ctx, username, password)
		if err == nil {
			if err := s.store.Save(ctx, token); err != nil {
				slog.Error("Failed to persist token", "error", err)
			}
			slog.Info("Logged in", "username", username, "attempt", attempt)

			return token, nil
		}

		lastErr = err
		if errors.Is(err, errs.ErrAuth) {
			break
		}

		slog.Warn("Login attempt failed", "attempt", attempt, "of", s.attempts, "error", err)
		if attempt == s.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}

	return "", fmt.Errorf("failed to login: %w", lastErr)
}

// AutoLogin logs in with the configured credentials.
func (s *AuthService) AutoLogin(ctx context.Context) (string, error) {
	if !s.HasCredentials() {
		return "", fmt.Errorf("%w: no credentials configured", errs.ErrNotAuthenticated)
	}

	return s.Login(ctx, s.username, s.password)
}

// Restore returns the stored token, or "" when there is none. A stored JWT
// whose exp claim has passed is discarded.
func (s *AuthService) Restore(ctx context.Context) (string, error) {
	token, err := s.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	if token == "" {
		return "", nil
	}

	if s.expired(token) {
		slog.Info("Stored token has expired, discarding it")
		if err := s.store.Clear(ctx); err != nil {
			return "", fmt.Errorf("failed to clear expired token: %w", err)
		}

		return "", nil
	}

	return token, nil
}

// Clear discards the stored token.
func (s *AuthService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	return nil
}

// expired reports whether token is a JWT past its exp claim. Opaque tokens
// never expire here; the API decides.
func (s *AuthService) expired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return !exp.After(s.now())
}

package itokenstore

import "context"

// ITokenStore is a single durable slot for the last valid session token.
type ITokenStore interface {
	// Load returns the stored token, or an empty string when there is none
	Load(ctx context.Context) (string, error)

	// Save replaces the stored token
	Save(ctx context.Context, token string) error

	// Clear removes the stored token
	Clear(ctx context.Context) error
}

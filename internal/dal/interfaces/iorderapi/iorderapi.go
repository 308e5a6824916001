package iorderapi

import (
	"context"

	"github.com/Dongwon38/print-agent/internal/service/models/order"
)

// IOrderAPI is the remote order source. Authorization failures wrap
// errs.ErrAuth, every other failure wraps errs.ErrTransient.
type IOrderAPI interface {
	Login(ctx context.Context, username, password string) (string, error)
	PendingOrders(ctx context.Context, token string) ([]order.Order, error)
	MarkPrinted(ctx context.Context, token string, id order.ID) error
}

package printjob

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPrinted Status = "printed"
	StatusFailed  Status = "failed"
)

var ErrInvalidStatus = errors.New("invalid print job status")

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPrinted, StatusFailed:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Job records the outcome of one attempt to print an order.
type Job struct {
	ID           uuid.UUID `json:"id"`
	TickID       uuid.UUID `json:"tick_id"`
	OrderID      string    `json:"order_id"`
	OrderNumber  string    `json:"order_number"`
	Status       Status    `json:"status"`
	Documents    int       `json:"documents"`
	Acknowledged bool      `json:"acknowledged"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

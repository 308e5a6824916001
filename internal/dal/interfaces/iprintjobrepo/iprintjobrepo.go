package iprintjobrepo

import (
	"context"

	"github.com/Dongwon38/print-agent/internal/service/models/printjob"
)

// IPrintJobRepository is the journal of print attempts.
type IPrintJobRepository interface {
	Record(ctx context.Context, job printjob.Job) error
	ListRecent(ctx context.Context, limit uint64) ([]printjob.Job, error)
}

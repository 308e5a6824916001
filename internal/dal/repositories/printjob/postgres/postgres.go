package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/Dongwon38/print-agent/internal/dal/postgres"
	"github.com/Dongwon38/print-agent/internal/service/models/printjob"
)

var columns = []string{
	"id",
	"tick_id",
	"order_id",
	"order_number",
	"status",
	"documents",
	"acknowledged",
	"error",
	"created_at",
}

// PrintJobRepository implements the print journal for PostgreSQL.
type PrintJobRepository struct {
	client *postgres.Client
}

// NewPrintJobRepository creates a new print job repository.
func NewPrintJobRepository(client *postgres.Client) *PrintJobRepository {
	return &PrintJobRepository{
		client: client,
	}
}

// Record appends one print attempt to the journal.
func (r *PrintJobRepository) Record(ctx context.Context, job printjob.Job) error {
	query, args, err := recordQuery(job)
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.client.DB().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert print job: %w", err)
	}

	return nil
}

// ListRecent returns the newest print attempts first.
func (r *PrintJobRepository) ListRecent(ctx context.Context, limit uint64) ([]printjob.Job, error) {
	query, args, err := listRecentQuery(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query print jobs: %w", err)
	}
	defer rows.Close()

	var jobs []printjob.Job
	for rows.Next() {
		var (
			job    printjob.Job
			status string
		)
		err := rows.Scan(
			&job.ID,
			&job.TickID,
			&job.OrderID,
			&job.OrderNumber,
			&status,
			&job.Documents,
			&job.Acknowledged,
			&job.Error,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan print job: %w", err)
		}

		job.Status, err = printjob.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("failed to parse print job %s: %w", job.ID, err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating print jobs: %w", err)
	}

	return jobs, nil
}

func recordQuery(job printjob.Job) (string, []any, error) {
	return sq.Insert("print_jobs").
		Columns(columns...).
		Values(
			job.ID,
			job.TickID,
			job.OrderID,
			job.OrderNumber,
			job.Status,
			job.Documents,
			job.Acknowledged,
			job.Error,
			job.CreatedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func listRecentQuery(limit uint64) (string, []any, error) {
	return sq.Select(columns...).
		From("print_jobs").
		OrderBy("created_at DESC").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

package postgres

import (
	"testing"
	"time"

	"github.com/Dongwon38/print-agent/internal/service/models/printjob"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordQuery(t *testing.T) {
	job := printjob.Job{
		ID:           uuid.New(),
		TickID:       uuid.New(),
		OrderID:      "42",
		OrderNumber:  "ORD-0042",
		Status:       printjob.StatusFailed,
		Documents:    3,
		Acknowledged: false,
		Error:        "printer unreachable",
		CreatedAt:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	query, args, err := recordQuery(job)
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO print_jobs (id,tick_id,order_id,order_number,status,documents,acknowledged,error,created_at) "+
			"VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)",
		query)
	require.Len(t, args, 9)
	assert.Equal(t, job.ID, args[0])
	assert.Equal(t, printjob.StatusFailed, args[4])
	assert.Equal(t, "printer unreachable", args[7])
}

func TestListRecentQuery(t *testing.T) {
	query, args, err := listRecentQuery(20)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT id, tick_id, order_id, order_number, status, documents, acknowledged, error, created_at "+
			"FROM print_jobs ORDER BY created_at DESC LIMIT 20",
		query)
	assert.Empty(t, args)
}

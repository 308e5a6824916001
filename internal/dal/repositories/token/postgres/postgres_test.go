package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueries(t *testing.T) {
	query, args, err := loadQuery()
	require.NoError(t, err)
	assert.Equal(t, "SELECT token FROM agent_tokens WHERE id = $1", query)
	assert.Equal(t, []any{slot}, args)

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	query, args, err = saveQuery("tok", now)
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO agent_tokens (id,token,updated_at) VALUES ($1,$2,$3) "+
			"ON CONFLICT (id) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at",
		query)
	assert.Equal(t, []any{slot, "tok", now}, args)

	query, args, err = clearQuery()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM agent_tokens WHERE id = $1", query)
	assert.Equal(t, []any{slot}, args)
}

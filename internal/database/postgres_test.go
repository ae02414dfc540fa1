package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edge-lab/internal/config"
)

func TestConnString(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "edge",
		Password: "secret",
		Name:     "edge_lab",
	}

	conn := ConnString(cfg)
	assert.Equal(t, "host=db.internal port=5433 user=edge password=secret dbname=edge_lab sslmode=disable", conn)

	cfg.SSLMode = "verify-full"
	assert.True(t, strings.HasSuffix(ConnString(cfg), "sslmode=verify-full"))
}

func TestSchemaStatementsIdempotent(t *testing.T) {
	for _, stmt := range schemaStatements {
		assert.Contains(t, stmt, "IF NOT EXISTS")
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	db := SetupTestDB(t)
	defer TeardownTestDB(t, db)

	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, "CREATE TEMP TABLE tx_probe (id INT)")
		require.NoError(t, execErr)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, db.HealthCheck(ctx))
}

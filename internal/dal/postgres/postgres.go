package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/spf13/viper"
)

// Client represents a Postgres client.
type Client struct {
	pool *pgxpool.Pool
	db   *sql.DB
}

// DB returns a database/sql handle backed by the pool.
func (p *Client) DB() *sql.DB {
	return p.db
}

// Close closes the database connection for graceful shutdown.
func (p *Client) Close() {
	_ = p.db.Close()
	p.pool.Close()
}

// MustNewClient connects to Postgres and applies pending migrations.
func MustNewClient() *Client {
	port := os.Getenv("PRINT_AGENT_PG_PORT")
	if port == "" {
		port = "5432"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("PRINT_AGENT_PG_HOST"),
		port,
		os.Getenv("PRINT_AGENT_PG_USER"),
		os.Getenv("PRINT_AGENT_PG_PASSWORD"),
		os.Getenv("PRINT_AGENT_PG_DB"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		panic(err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		panic(err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		panic(err)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		panic(err)
	}

	migrationsPath := viper.GetString("postgres.migrations_path")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := goose.Up(db, migrationsPath); err != nil {
		panic(err)
	}

	return &Client{
		pool: pool,
		db:   db,
	}
}

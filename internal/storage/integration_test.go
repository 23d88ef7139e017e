package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"
)

func TestPostgresProvider(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	c := context.Background()
	pgContainer, err := postgres.Run(
		c,
		"postgres:16.6-alpine3.21",
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.WithDatabase("postgres"),
		postgres.BasicWaitStrategies(),
		postgres.WithInitScripts(
			filepath.Join(
				"..", "..", "migrations",
				"20250301093000_create_table_session_entries.up.sql",
			),
		),
	)
	if err != nil {
		t.Fatalf("failed running postgres container with error: %s", err)
	}
	defer func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(c, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed getting postgres connection string with error: %s", err)
	}
	pgConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed parsing pgx config with error: %s", err)
	}
	pgConfig.AfterConnect = func(c context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(c, pgConfig)
	if err != nil {
		t.Fatalf("failed creating postgres pool with error: %s", err)
	}
	defer pool.Close()

	exerciseProvider(t, NewPostgresProvider(pool))
}

func TestRedisProviderContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	c := context.Background()
	redisContainer, err := testRedis.Run(c, "redis:7.4.2-alpine3.21")
	if err != nil {
		t.Fatalf("failed running redis container with error: %s", err)
	}
	defer func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := redisContainer.ConnectionString(c)
	if err != nil {
		t.Fatalf("failed getting redis connection string with error: %s", err)
	}
	opt, err := redis.ParseURL(connStr)
	if err != nil {
		t.Fatalf("failed parsing redis url with error: %s", err)
	}
	client := redis.NewClient(opt)
	defer client.Close()

	exerciseProvider(t, NewRedisProvider(client, 0))
}

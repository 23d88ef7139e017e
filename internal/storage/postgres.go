package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/sneakerzone/internal/otel"
)

const (
	queryGetEntry = `SELECT value FROM session_entries WHERE session_id = $1 AND key = $2`

	queryUpsertEntry = `INSERT INTO session_entries (session_id, key, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

	queryDeleteEntry = `DELETE FROM session_entries WHERE session_id = $1 AND key = $2`
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(c context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(c context.Context, sql string, args ...any) pgx.Row
}

type PostgresProvider struct {
	db DBTX
}

func NewPostgresProvider(db DBTX) *PostgresProvider {
	return &PostgresProvider{db: db}
}

func (p *PostgresProvider) Session(id uuid.UUID) Store {
	return postgresStore{db: p.db, sessionID: id}
}

type postgresStore struct {
	db        DBTX
	sessionID uuid.UUID
}

func (s postgresStore) attrs(key string) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("storage.session_id", s.sessionID.String()),
		attribute.String("storage.key", key),
	)
}

func (s postgresStore) Get(c context.Context, key string) (string, error) {
	c, span := otel.Tracer.Start(c, "postgresStore Get", s.attrs(key))
	defer span.End()

	var value string
	err := s.db.QueryRow(c, queryGetEntry, s.sessionID, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed selecting key=%s with error=%w", key, err)
		otel.RecordError(err, span)
		return "", err
	}
	return value, nil
}

func (s postgresStore) Set(c context.Context, key string, value string) error {
	c, span := otel.Tracer.Start(c, "postgresStore Set", s.attrs(key))
	defer span.End()

	if _, err := s.db.Exec(c, queryUpsertEntry, s.sessionID, key, value); err != nil {
		err = fmt.Errorf("failed upserting key=%s with error=%w", key, err)
		otel.RecordError(err, span)
		return err
	}
	return nil
}

func (s postgresStore) Remove(c context.Context, key string) error {
	c, span := otel.Tracer.Start(c, "postgresStore Remove", s.attrs(key))
	defer span.End()

	if _, err := s.db.Exec(c, queryDeleteEntry, s.sessionID, key); err != nil {
		err = fmt.Errorf("failed deleting key=%s with error=%w", key, err)
		otel.RecordError(err, span)
		return err
	}
	return nil
}

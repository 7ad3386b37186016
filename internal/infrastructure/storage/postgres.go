package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"GameHarvester/internal/ports"
)

// DB is the pgx surface the store needs; satisfied by *pgxpool.Pool and by
// pgxmock in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres is the durable known-ID ledger backed by the storefront database.
type Postgres struct {
	db      DB
	builder sq.StatementBuilderType
}

var _ ports.LedgerStore = (*Postgres)(nil)

// NewPostgres wires an existing connection pool.
func NewPostgres(db DB) *Postgres {
	return &Postgres{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Connect opens a pool for the DSN and pings it, so a bad DSN fails at
// startup rather than mid-batch.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// SeedKnownIDs loads every game ID ever harvested.
func (p *Postgres) SeedKnownIDs(ctx context.Context) ([]string, error) {
	query, args, err := p.builder.
		Select("game_id").
		From("harvested_games").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seed query: %w", err)
	}

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query known ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return ids, nil
}

// AppendKnown records a batch of freshly fetched IDs. Re-appending an ID is a
// no-op, so crashed runs can safely replay their last player.
func (p *Postgres) AppendKnown(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	insert := p.builder.
		Insert("harvested_games").
		Columns("game_id")
	for _, id := range ids {
		insert = insert.Values(id)
	}
	query, args, err := insert.
		Suffix("ON CONFLICT (game_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build append query: %w", err)
	}

	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("append known ids: %w", err)
	}
	return nil
}

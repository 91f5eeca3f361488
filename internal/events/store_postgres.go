package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"provenance/pkg/platform/tx"
)

// Schema creates the event log table used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS registry_events (
	seq          BIGSERIAL PRIMARY KEY,
	kind         TEXT        NOT NULL,
	contract     TEXT        NOT NULL,
	block_number BIGINT      NOT NULL,
	occurred_at  TIMESTAMPTZ NOT NULL,
	fields       JSONB       NOT NULL DEFAULT '{}'::jsonb
);
CREATE INDEX IF NOT EXISTS registry_events_kind_idx ON registry_events (kind, seq);
CREATE INDEX IF NOT EXISTS registry_events_contract_idx ON registry_events (contract, seq);
`

// PostgresStore keeps the event log in PostgreSQL. Sequence numbers come from the
// BIGSERIAL column, so they are increasing but may have gaps after a failed append.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the table and indexes if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate event log: %w", err)
	}
	return nil
}

// Append inserts evs in one transaction. When ctx already carries a transaction the
// insert joins it and the caller commits.
func (s *PostgresStore) Append(ctx context.Context, evs []Event) ([]Event, error) {
	var stored []Event
	err := tx.Run(ctx, s.db, func(sqlTx *sql.Tx) error {
		var err error
		stored, err = insertEvents(ctx, sqlTx, evs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("append events: %w", err)
	}
	return stored, nil
}

func insertEvents(ctx context.Context, sqlTx *sql.Tx, evs []Event) ([]Event, error) {
	const query = `
		INSERT INTO registry_events (kind, contract, block_number, occurred_at, fields)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`
	stored := make([]Event, len(evs))
	for i, ev := range evs {
		fields, err := json.Marshal(ev.Fields)
		if err != nil {
			return nil, fmt.Errorf("encode event fields: %w", err)
		}
		var seq int64
		err = sqlTx.QueryRowContext(ctx, query, string(ev.Kind), ev.Contract.Hex(), int64(ev.BlockNumber), ev.Time.UTC(), fields).Scan(&seq)
		if err != nil {
			return nil, fmt.Errorf("insert event %s: %w", ev.Kind, err)
		}
		ev.Seq = uint64(seq)
		stored[i] = ev
	}
	return stored, nil
}

// List returns matching events in sequence order.
func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		where = append(where, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Contract != (common.Address{}) {
		args = append(args, filter.Contract.Hex())
		where = append(where, fmt.Sprintf("contract = $%d", len(args)))
	}
	if filter.FromSeq > 0 {
		args = append(args, int64(filter.FromSeq))
		where = append(where, fmt.Sprintf("seq >= $%d", len(args)))
	}
	query := `SELECT seq, kind, contract, block_number, occurred_at, fields FROM registry_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev       Event
			seq      int64
			kind     string
			contract string
			block    int64
			fields   []byte
		)
		if err := rows.Scan(&seq, &kind, &contract, &block, &ev.Time, &fields); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Seq = uint64(seq)
		ev.Kind = Kind(kind)
		ev.Contract = common.HexToAddress(contract)
		ev.BlockNumber = uint64(block)
		if err := json.Unmarshal(fields, &ev.Fields); err != nil {
			return nil, fmt.Errorf("decode event fields: %w", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

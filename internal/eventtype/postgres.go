package eventtype

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const queryGetEventDetails = `
SELECT event_id, data, updated_at
FROM event_details
WHERE event_id = $1`

// PostgresDetails reads stored event payloads from PostgreSQL.
type PostgresDetails struct {
	db      *sql.DB
	stmtGet *sql.Stmt
}

// NewPostgresDetails prepares the payload lookup against an existing
// connection pool.
func NewPostgresDetails(db *sql.DB) (*PostgresDetails, error) {
	stmt, err := db.Prepare(queryGetEventDetails)
	if err != nil {
		return nil, fmt.Errorf("prepare event details query: %w", err)
	}
	return &PostgresDetails{db: db, stmtGet: stmt}, nil
}

func (p *PostgresDetails) Get(ctx context.Context, eventID string) (*EventDetails, error) {
	var d EventDetails
	err := p.stmtGet.QueryRowContext(ctx, eventID).Scan(&d.EventID, &d.Data, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query event details: %w", err)
	}
	return &d, nil
}

// Close releases the prepared statement. The connection pool is owned by
// the caller.
func (p *PostgresDetails) Close() error {
	return p.stmtGet.Close()
}

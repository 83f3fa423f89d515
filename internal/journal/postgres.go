package journal

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Postgres stores entries in the activity table created by the migrations.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres wraps an open pool.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

const insertEntry = `INSERT INTO activity (id, user_id, action, details, created_at)
VALUES (:id, :user_id, :action, :details, :created_at)`

const selectRecent = `SELECT id, user_id, action, details, created_at
FROM activity
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

// Record inserts e.
func (p *Postgres) Record(ctx context.Context, e Entry) error {
	if _, err := p.db.NamedExecContext(ctx, insertEntry, prepare(e)); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Recent returns up to limit entries of userID, newest first.
func (p *Postgres) Recent(ctx context.Context, userID int64, limit int) ([]Entry, error) {
	var out []Entry
	if err := p.db.SelectContext(ctx, &out, selectRecent, userID, limit); err != nil {
		return nil, fmt.Errorf("select activity: %w", err)
	}
	return out, nil
}

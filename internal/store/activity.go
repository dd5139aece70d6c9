package store

import (
	"context"
	"database/sql"
	"time"
)

// ActivityEntry is one audit-trail row.
type ActivityEntry struct {
	Category    string
	Action      string
	Actor       string
	Description string
	Outcome     string
	At          time.Time
}

type Activity interface {
	Insert(ctx context.Context, e ActivityEntry) error
}

type activityPG struct {
	db *sql.DB
}

func NewActivity(db *sql.DB) Activity { return &activityPG{db: db} }

func (r *activityPG) Insert(ctx context.Context, e ActivityEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (category, action, actor, description, outcome, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.Category, e.Action, e.Actor, e.Description, e.Outcome, e.At)
	return err
}

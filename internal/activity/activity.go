// Package activity writes the audit trail. Logging here is fire-and-forget:
// a failed audit write must never fail or slow the operation being audited.
package activity

import (
	"context"
	"time"

	"tableside/internal/logging"
	"tableside/internal/store"
)

type Logger struct {
	repo store.Activity
	log  *logging.Logger
}

func New(repo store.Activity, log *logging.Logger) *Logger {
	return &Logger{repo: repo, log: log}
}

// Log records an action asynchronously. Errors are swallowed.
func (l *Logger) Log(category, action, actor, description, outcome string) {
	if l == nil || l.repo == nil {
		return
	}
	e := store.ActivityEntry{
		Category:    category,
		Action:      action,
		Actor:       actor,
		Description: description,
		Outcome:     outcome,
		At:          time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.repo.Insert(ctx, e); err != nil {
			l.log.Debug("activity_log_failed", "action", action, "error", err.Error())
		}
	}()
}

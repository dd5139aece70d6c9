package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"tableside/internal/domain"
)

// Shifts persists cashier shifts. The single-active-shift invariant is
// enforced here with guarded statements, never with in-process locks, so
// multiple server processes stay correct.
type Shifts interface {
	// OpenIfNone inserts an active shift unless one already exists for the
	// cashier. Returns false when the guard blocked the insert.
	OpenIfNone(ctx context.Context, s *domain.Shift) (bool, error)
	// CloseActive completes the active shift and returns it, or nil when the
	// cashier has no active shift.
	CloseActive(ctx context.Context, cashierID int64, amount float64, at time.Time) (*domain.Shift, error)
	GetActive(ctx context.Context, cashierID int64) (*domain.Shift, error)
}

type shiftsPG struct {
	db *sql.DB
}

func NewShifts(db *sql.DB) Shifts { return &shiftsPG{db: db} }

func (r *shiftsPG) OpenIfNone(ctx context.Context, s *domain.Shift) (bool, error) {
	// The WHERE NOT EXISTS guard and the partial unique index on
	// (cashier_id) WHERE status='active' both protect the invariant.
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO shifts (cashier_id, cashier_username, cash_in_amount, cash_in_time, status, shift_date)
		SELECT $1, $2, $3, $4, 'active', $5
		WHERE NOT EXISTS (
			SELECT 1 FROM shifts WHERE cashier_id=$1 AND status='active'
		)
		RETURNING id`,
		s.CashierID, s.CashierUsername, s.CashInAmount, s.CashInTime, s.ShiftDate).
		Scan(&s.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if isDuplicate(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.Status = domain.ShiftActive
	return true, nil
}

func (r *shiftsPG) CloseActive(ctx context.Context, cashierID int64, amount float64, at time.Time) (*domain.Shift, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE shifts SET status='completed', cash_out_amount=$2, cash_out_time=$3
		WHERE cashier_id=$1 AND status='active'
		RETURNING id, cashier_id, cashier_username, cash_in_amount, cash_in_time,
			cash_out_amount, cash_out_time, status, shift_date`,
		cashierID, amount, at)
	s, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *shiftsPG) GetActive(ctx context.Context, cashierID int64) (*domain.Shift, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, cashier_id, cashier_username, cash_in_amount, cash_in_time,
			cash_out_amount, cash_out_time, status, shift_date
		FROM shifts WHERE cashier_id=$1 AND status='active'`,
		cashierID)
	s, err := scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	var s domain.Shift
	var outAmount sql.NullFloat64
	var outTime sql.NullTime
	err := row.Scan(&s.ID, &s.CashierID, &s.CashierUsername, &s.CashInAmount, &s.CashInTime,
		&outAmount, &outTime, &s.Status, &s.ShiftDate)
	if err != nil {
		return nil, err
	}
	if outAmount.Valid {
		v := outAmount.Float64
		s.CashOutAmount = &v
	}
	if outTime.Valid {
		t := outTime.Time
		s.CashOutTime = &t
	}
	return &s, nil
}

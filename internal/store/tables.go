package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"tableside/internal/domain"
)

// Tables persists the physical table roster.
type Tables interface {
	List(ctx context.Context) ([]domain.Table, error)
	GetByID(ctx context.Context, id int) (*domain.Table, error)
	Create(ctx context.Context, t *domain.Table) error
	Update(ctx context.Context, t *domain.Table) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	SetAvailability(ctx context.Context, id int, available bool) (bool, error)
}

type tablesPG struct {
	db *sql.DB
}

func NewTables(db *sql.DB) Tables { return &tablesPG{db: db} }

const uniqueViolation = "23505"

func isDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *tablesPG) List(ctx context.Context) ([]domain.Table, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, label, capacity, available, created_at, updated_at
		FROM tables ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Table
	for rows.Next() {
		var t domain.Table
		if err := rows.Scan(&t.ID, &t.Label, &t.Capacity, &t.Available, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *tablesPG) GetByID(ctx context.Context, id int) (*domain.Table, error) {
	var t domain.Table
	err := r.db.QueryRowContext(ctx, `
		SELECT id, label, capacity, available, created_at, updated_at
		FROM tables WHERE id=$1`, id).
		Scan(&t.ID, &t.Label, &t.Capacity, &t.Available, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tablesPG) Create(ctx context.Context, t *domain.Table) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tables (label, capacity, available, created_at, updated_at)
		VALUES ($1,$2,$3,now(),now())
		RETURNING id, created_at, updated_at`,
		t.Label, t.Capacity, t.Available).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if isDuplicate(err) {
		return domain.Conflictf("table label %q already exists", t.Label)
	}
	return err
}

func (r *tablesPG) Update(ctx context.Context, t *domain.Table) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tables SET label=$2, capacity=$3, updated_at=now() WHERE id=$1`,
		t.ID, t.Label, t.Capacity)
	if isDuplicate(err) {
		return false, domain.Conflictf("table label %q already exists", t.Label)
	}
	if err != nil {
		return false, err
	}
	return matched(res)
}

func (r *tablesPG) Delete(ctx context.Context, id int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tables WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return matched(res)
}

func (r *tablesPG) SetAvailability(ctx context.Context, id int, available bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tables SET available=$2, updated_at=now() WHERE id=$1`, id, available)
	if err != nil {
		return false, err
	}
	return matched(res)
}

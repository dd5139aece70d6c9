package store

import (
	"context"
	"database/sql"
	"errors"

	"tableside/internal/domain"
)

type Users interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

type usersPG struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) Users { return &usersPG{db: db} }

func (r *usersPG) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role FROM users WHERE username=$1`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *usersPG) Create(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, role) VALUES ($1,$2,$3)
		RETURNING id`,
		u.Username, u.PasswordHash, u.Role).Scan(&u.ID)
	if isDuplicate(err) {
		return domain.Conflictf("username %q already exists", u.Username)
	}
	return err
}

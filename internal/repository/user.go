// Package repository holds the SQL behind the service's persisted entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dharsanguruparan/imggen/internal/common"
	"github.com/dharsanguruparan/imggen/internal/database"
	"github.com/dharsanguruparan/imggen/internal/model"
)

// UserRepository reads accounts owned by the user service.
type UserRepository struct {
	db database.Querier
}

func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// FindUserByID returns common.ErrNotFound when no account has that id.
func (r *UserRepository) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	var (
		u     model.User
		email sql.NullString
		name  sql.NullString
	)
	row := r.db.QueryRow(ctx, `SELECT id, email, name, created_at FROM users WHERE id=$1`, id)
	if err := row.Scan(&u.ID, &email, &name, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	u.Email = email.String
	u.Name = name.String
	return &u, nil
}

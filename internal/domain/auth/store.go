package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/platform/db"
)

type Store struct {
	DB db.Queryer
}

func NewStore(pool db.Queryer) *Store {
	return &Store{DB: pool}
}

type AuthUser struct {
	ID       int64
	Username string
	Name     string
	Password string
	Roles    Roles
}

func (s *Store) FindByUsername(ctx context.Context, username string) (AuthUser, error) {
	var out AuthUser
	var roles []string
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.username, u.name, u.password_hash,
           COALESCE(array_agg(ur.role ORDER BY ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}')
    FROM users u
    LEFT JOIN user_roles ur ON ur.user_id = u.id
    WHERE u.username = $1
    GROUP BY u.id
  `, username).Scan(&out.ID, &out.Username, &out.Name, &out.Password, &roles)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrUserNotFound
	}
	if err != nil {
		return AuthUser{}, err
	}
	out.Roles = NormalizeRoles(roles)
	return out, nil
}

package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/config"
	"appraisal/internal/platform/db"
)

type question struct {
	Text     string
	Category string
}

var defaultQuestions = []question{
	{"How consistently does this person translate complex requirements into working code without constant supervision?", "Execution"},
	{"How effectively does this person unblock themselves and others when facing technical hurdles?", "Problem Solving"},
	{"Does this person actively participate in code reviews and provide constructive feedback?", "Collaboration"},
	{"How well does this person document their code and architectural decisions?", "Documentation"},
	{"Does this person demonstrate a strong understanding of security best practices?", "Security"},
}

type demoUser struct {
	Username    string
	Name        string
	Email       string
	Designation string
	Roles       []auth.Role
}

var demoUsers = []demoUser{
	{"john.doe", "John Doe", "john.doe@example.com", "Software Engineer", []auth.Role{auth.RoleEmployee}},
	{"jane.smith", "Jane Smith", "jane.smith@example.com", "Engineering Manager", []auth.Role{auth.RoleEmployee, auth.RoleProjectManager}},
	{"hr.admin", "Helen Ross", "hr.admin@example.com", "HR Partner", []auth.Role{auth.RoleEmployee, auth.RoleHR}},
	{"the.boss", "Bruce Boss", "the.boss@example.com", "Director", []auth.Role{auth.RoleEmployee, auth.RoleBoss}},
}

// Run seeds the question catalog when it is empty and, when a default password is
// configured, the demo users. Every step is idempotent.
func Run(ctx context.Context, q db.Queryer, cfg config.Config) error {
	if err := ensureQuestions(ctx, q); err != nil {
		return fmt.Errorf("seed questions: %w", err)
	}
	if strings.TrimSpace(cfg.SeedDefaultPassword) == "" {
		slog.Info("seed users skipped", "reason", "SEED_DEFAULT_PASSWORD not set")
		return nil
	}
	hash, err := auth.HashPassword(cfg.SeedDefaultPassword)
	if err != nil {
		return err
	}
	for _, u := range demoUsers {
		if err := ensureUser(ctx, q, u, hash); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
	}
	return nil
}

func ensureQuestions(ctx context.Context, q db.Queryer) error {
	var count int
	if err := q.QueryRow(ctx, "SELECT COUNT(1) FROM questions").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, item := range defaultQuestions {
		if _, err := q.Exec(ctx, "INSERT INTO questions (text, category, active) VALUES ($1, $2, true)", item.Text, item.Category); err != nil {
			return err
		}
	}
	slog.Info("seeded questions", "count", len(defaultQuestions))
	return nil
}

func ensureUser(ctx context.Context, q db.Queryer, u demoUser, hash string) error {
	var id int64
	err := q.QueryRow(ctx, "SELECT id FROM users WHERE username = $1", u.Username).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = q.QueryRow(ctx, `
      INSERT INTO users (username, password_hash, name, email, designation)
      VALUES ($1, $2, $3, $4, $5)
      RETURNING id
    `, u.Username, hash, u.Name, u.Email, u.Designation).Scan(&id)
	}
	if err != nil {
		return err
	}
	for _, role := range u.Roles {
		if _, err := q.Exec(ctx, "INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING", id, string(role)); err != nil {
			return err
		}
	}
	return nil
}

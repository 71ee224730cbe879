package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/database"
	"github.com/jackc/pgx/v5/pgconn"
)

type adminRepository struct {
	db *database.DB
}

func NewAdminRepository(db *database.DB) identity.AdminRepository {
	return &adminRepository{db: db}
}

// List implements identity.AdminRepository.
func (a *adminRepository) List(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, a.db)

	rows, err := q.Query(ctx, `SELECT email FROM admins ORDER BY created_at, email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read admin rows: %w", err)
	}
	return emails, nil
}

// Add implements identity.AdminRepository.
func (a *adminRepository) Add(ctx context.Context, email string) error {
	q := GetQuerier(ctx, a.db)

	_, err := q.Exec(ctx, `INSERT INTO admins (email) VALUES ($1)`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return identity.ErrAdminExists
		}
		return fmt.Errorf("failed to add admin: %w", err)
	}
	return nil
}

// Remove implements identity.AdminRepository.
func (a *adminRepository) Remove(ctx context.Context, email string) error {
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM admins WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrAdminNotFound
	}
	return nil
}

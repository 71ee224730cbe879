package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/attendance-bot/internal/domain/identity"
	"github.com/cmlabs-hris/attendance-bot/internal/pkg/spreadsheet"
)

// AdminsSegment lists admin emails in column A below a header.
const AdminsSegment = "Admins"

var adminHeader = []string{"Email"}

type adminRepository struct {
	book *Book
}

func NewAdminRepository(book *Book) identity.AdminRepository {
	return &adminRepository{book: book}
}

// List implements identity.AdminRepository.
func (a *adminRepository) List(ctx context.Context) ([]string, error) {
	rows, _, err := a.book.rows(ctx, AdminsSegment, 1)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(rows))
	for _, row := range rows {
		if email := strings.TrimSpace(cell(row, 0)); email != "" {
			emails = append(emails, email)
		}
	}
	return emails, nil
}

// Add implements identity.AdminRepository.
func (a *adminRepository) Add(ctx context.Context, email string) error {
	if err := a.book.Ensure(ctx, AdminsSegment, adminHeader); err != nil {
		return err
	}
	emails, err := a.List(ctx)
	if err != nil {
		return err
	}
	for _, e := range emails {
		if strings.EqualFold(e, email) {
			return identity.ErrAdminExists
		}
	}
	if err := a.book.client.Append(ctx, spreadsheet.Range(AdminsSegment, "A:A"), [][]string{{email}}); err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}
	return nil
}

// Remove implements identity.AdminRepository. The column is rewritten
// compacted and the freed cells at the bottom are blanked.
func (a *adminRepository) Remove(ctx context.Context, email string) error {
	current, _, err := a.book.rows(ctx, AdminsSegment, 1)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(current))
	removed := false
	for _, row := range current {
		e := strings.TrimSpace(cell(row, 0))
		if e == "" {
			continue
		}
		if strings.EqualFold(e, email) {
			removed = true
			continue
		}
		rows = append(rows, []string{e})
	}
	if !removed {
		return identity.ErrAdminNotFound
	}
	for len(rows) < len(current) {
		rows = append(rows, []string{""})
	}

	rng := spreadsheet.Range(AdminsSegment, fmt.Sprintf("A2:A%d", len(rows)+1))
	if err := a.book.client.Update(ctx, rng, rows); err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}
	return nil
}

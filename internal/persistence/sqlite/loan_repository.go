package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/bookhive/internal/application"
	"github.com/example/bookhive/internal/persistence"
)

// CreateLoan inserts a new loan row.
func (s *Store) CreateLoan(ctx context.Context, loan application.Loan) (application.Loan, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO loans (id, user_id, copy_id, checkout_at, due_at, returned_at) VALUES (?, ?, ?, ?, ?, ?)`,
		loan.ID, loan.UserID, loan.CopyID,
		formatTime(loan.CheckoutAt), formatTime(loan.DueAt), formatNullableTime(loan.ReturnedAt),
	)
	if err != nil {
		return application.Loan{}, mapError(err)
	}
	return loan, nil
}

// GetLoan retrieves a loan by ID.
func (s *Store) GetLoan(ctx context.Context, id string) (application.Loan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, copy_id, checkout_at, due_at, returned_at FROM loans WHERE id = ?`, id)
	return scanLoan(row)
}

// UpdateLoan replaces an existing loan row.
func (s *Store) UpdateLoan(ctx context.Context, loan application.Loan) (application.Loan, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE loans SET user_id = ?, copy_id = ?, checkout_at = ?, due_at = ?, returned_at = ? WHERE id = ?`,
		loan.UserID, loan.CopyID,
		formatTime(loan.CheckoutAt), formatTime(loan.DueAt), formatNullableTime(loan.ReturnedAt),
		loan.ID,
	)
	if err != nil {
		return application.Loan{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return application.Loan{}, err
	}
	if affected == 0 {
		return application.Loan{}, persistence.ErrNotFound
	}
	return loan, nil
}

// ListLoansByUser returns the user's loans in creation order.
func (s *Store) ListLoansByUser(ctx context.Context, userID string) ([]application.Loan, error) {
	return s.queryLoans(ctx,
		`SELECT id, user_id, copy_id, checkout_at, due_at, returned_at FROM loans WHERE user_id = ? ORDER BY checkout_at, id`,
		userID)
}

// ListOpenLoans returns every loan without a return timestamp.
func (s *Store) ListOpenLoans(ctx context.Context) ([]application.Loan, error) {
	return s.queryLoans(ctx,
		`SELECT id, user_id, copy_id, checkout_at, due_at, returned_at FROM loans WHERE returned_at IS NULL ORDER BY checkout_at, id`)
}

func (s *Store) queryLoans(ctx context.Context, query string, args ...any) ([]application.Loan, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var loans []application.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

func scanLoan(row rowScanner) (application.Loan, error) {
	var loan application.Loan
	var checkoutAt, dueAt string
	var returnedAt sql.NullString
	err := row.Scan(&loan.ID, &loan.UserID, &loan.CopyID, &checkoutAt, &dueAt, &returnedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return application.Loan{}, persistence.ErrNotFound
		}
		return application.Loan{}, mapError(err)
	}
	if loan.CheckoutAt, err = parseTime(checkoutAt); err != nil {
		return application.Loan{}, err
	}
	if loan.DueAt, err = parseTime(dueAt); err != nil {
		return application.Loan{}, err
	}
	if loan.ReturnedAt, err = parseNullableTime(returnedAt); err != nil {
		return application.Loan{}, err
	}
	return loan, nil
}

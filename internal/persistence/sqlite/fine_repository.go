package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/bookhive/internal/application"
	"github.com/example/bookhive/internal/persistence"
)

// CreateFine inserts a new fine row.
func (s *Store) CreateFine(ctx context.Context, fine application.Fine) (application.Fine, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fines (id, user_id, amount_cents, reason, created_at, paid_at) VALUES (?, ?, ?, ?, ?, ?)`,
		fine.ID, fine.UserID, fine.AmountCents, fine.Reason,
		formatTime(fine.CreatedAt), formatNullableTime(fine.PaidAt),
	)
	if err != nil {
		return application.Fine{}, mapError(err)
	}
	return fine, nil
}

// UpdateFine replaces an existing fine row.
func (s *Store) UpdateFine(ctx context.Context, fine application.Fine) (application.Fine, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE fines SET user_id = ?, amount_cents = ?, reason = ?, created_at = ?, paid_at = ? WHERE id = ?`,
		fine.UserID, fine.AmountCents, fine.Reason,
		formatTime(fine.CreatedAt), formatNullableTime(fine.PaidAt),
		fine.ID,
	)
	if err != nil {
		return application.Fine{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return application.Fine{}, err
	}
	if affected == 0 {
		return application.Fine{}, persistence.ErrNotFound
	}
	return fine, nil
}

// ListUnpaidFinesByUser returns the user's unpaid fines in creation order.
func (s *Store) ListUnpaidFinesByUser(ctx context.Context, userID string) ([]application.Fine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, reason, created_at, paid_at FROM fines
		 WHERE user_id = ? AND paid_at IS NULL ORDER BY created_at, id`,
		userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var fines []application.Fine
	for rows.Next() {
		fine, err := scanFine(rows)
		if err != nil {
			return nil, err
		}
		fines = append(fines, fine)
	}
	return fines, rows.Err()
}

func scanFine(row rowScanner) (application.Fine, error) {
	var fine application.Fine
	var createdAt string
	var paidAt sql.NullString
	err := row.Scan(&fine.ID, &fine.UserID, &fine.AmountCents, &fine.Reason, &createdAt, &paidAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return application.Fine{}, persistence.ErrNotFound
		}
		return application.Fine{}, mapError(err)
	}
	if fine.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Fine{}, err
	}
	if fine.PaidAt, err = parseNullableTime(paidAt); err != nil {
		return application.Fine{}, err
	}
	return fine, nil
}

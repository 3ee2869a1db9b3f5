package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/bookhive/internal/application"
	"github.com/example/bookhive/internal/persistence"
)

// CreateReservation inserts a new reservation row.
func (s *Store) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reservations (id, user_id, book_id, placed_at, status) VALUES (?, ?, ?, ?, ?)`,
		reservation.ID, reservation.UserID, reservation.BookID,
		formatTime(reservation.PlacedAt), string(reservation.Status),
	)
	if err != nil {
		return application.Reservation{}, mapError(err)
	}
	return reservation, nil
}

// UpdateReservation replaces an existing reservation row.
func (s *Store) UpdateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE reservations SET user_id = ?, book_id = ?, placed_at = ?, status = ? WHERE id = ?`,
		reservation.UserID, reservation.BookID,
		formatTime(reservation.PlacedAt), string(reservation.Status),
		reservation.ID,
	)
	if err != nil {
		return application.Reservation{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return application.Reservation{}, err
	}
	if affected == 0 {
		return application.Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

// ListActiveReservationsForBook returns the book's Active reservations in
// FIFO order: placed_at ascending, ID as tie-break.
func (s *Store) ListActiveReservationsForBook(ctx context.Context, bookID string) ([]application.Reservation, error) {
	return s.queryReservations(ctx,
		`SELECT id, user_id, book_id, placed_at, status FROM reservations
		 WHERE book_id = ? AND status = ? ORDER BY placed_at, id`,
		bookID, string(application.ReservationActive))
}

// ListReservationsByUser returns the user's reservations in placement order.
func (s *Store) ListReservationsByUser(ctx context.Context, userID string) ([]application.Reservation, error) {
	return s.queryReservations(ctx,
		`SELECT id, user_id, book_id, placed_at, status FROM reservations
		 WHERE user_id = ? ORDER BY placed_at, id`,
		userID)
}

func (s *Store) queryReservations(ctx context.Context, query string, args ...any) ([]application.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reservations []application.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, rows.Err()
}

func scanReservation(row rowScanner) (application.Reservation, error) {
	var reservation application.Reservation
	var placedAt, status string
	err := row.Scan(&reservation.ID, &reservation.UserID, &reservation.BookID, &placedAt, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return application.Reservation{}, persistence.ErrNotFound
		}
		return application.Reservation{}, mapError(err)
	}
	reservation.Status = application.ReservationStatus(status)
	if reservation.PlacedAt, err = parseTime(placedAt); err != nil {
		return application.Reservation{}, err
	}
	return reservation, nil
}

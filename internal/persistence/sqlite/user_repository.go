package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/bookhive/internal/application"
	"github.com/example/bookhive/internal/persistence"
)

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user application.User) (application.User, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, role, active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, string(user.Role), user.Active, formatTime(user.CreatedAt),
	)
	if err != nil {
		return application.User{}, mapError(err)
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (application.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, role, active, created_at FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// UpdateUser replaces an existing user row.
func (s *Store) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, role = ?, active = ? WHERE id = ?`,
		user.Name, user.Email, string(user.Role), user.Active, user.ID,
	)
	if err != nil {
		return application.User{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return application.User{}, err
	}
	if affected == 0 {
		return application.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// ListUsers returns every user ordered by creation timestamp then ID.
func (s *Store) ListUsers(ctx context.Context) ([]application.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, role, active, created_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []application.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (application.User, error) {
	var user application.User
	var role, createdAt string
	err := row.Scan(&user.ID, &user.Name, &user.Email, &role, &user.Active, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return application.User{}, persistence.ErrNotFound
		}
		return application.User{}, mapError(err)
	}
	user.Role = application.Role(role)
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.User{}, err
	}
	return user, nil
}

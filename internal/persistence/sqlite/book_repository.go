package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/bookhive/internal/application"
	"github.com/example/bookhive/internal/persistence"
)

// CreateBook inserts a book and its tags in one transaction.
func (s *Store) CreateBook(ctx context.Context, book application.Book) (application.Book, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO books (id, title, author, isbn, created_at) VALUES (?, ?, ?, ?, ?)`,
			book.ID, book.Title, book.Author, book.ISBN, formatTime(book.CreatedAt),
		); err != nil {
			return mapError(err)
		}
		for i, tag := range book.Tags {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO book_tags (book_id, position, tag) VALUES (?, ?, ?)`,
				book.ID, i+1, tag,
			); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
	if err != nil {
		return application.Book{}, err
	}
	return book, nil
}

// GetBook retrieves a book and its tags by ID.
func (s *Store) GetBook(ctx context.Context, id string) (application.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, author, isbn, created_at FROM books WHERE id = ?`, id)
	book, err := scanBook(row)
	if err != nil {
		return application.Book{}, err
	}
	if book.Tags, err = s.listTags(ctx, book.ID); err != nil {
		return application.Book{}, err
	}
	return book, nil
}

// ListBooks returns every book in catalogue order.
func (s *Store) ListBooks(ctx context.Context) ([]application.Book, error) {
	return s.queryBooks(ctx,
		`SELECT id, title, author, isbn, created_at FROM books ORDER BY created_at, id`)
}

// SearchBooks returns books whose title, author, ISBN, or any tag contains
// the text, case-insensitively, in catalogue order.
func (s *Store) SearchBooks(ctx context.Context, text string) ([]application.Book, error) {
	needle := strings.TrimSpace(text)
	if needle == "" {
		return s.ListBooks(ctx)
	}
	pattern := "%" + escapeLike(strings.ToLower(needle)) + "%"
	return s.queryBooks(ctx, `
		SELECT DISTINCT b.id, b.title, b.author, b.isbn, b.created_at
		FROM books b
		LEFT JOIN book_tags t ON t.book_id = b.id
		WHERE lower(b.title) LIKE ? ESCAPE '\'
		   OR lower(b.author) LIKE ? ESCAPE '\'
		   OR lower(b.isbn) LIKE ? ESCAPE '\'
		   OR lower(t.tag) LIKE ? ESCAPE '\'
		ORDER BY b.created_at, b.id`,
		pattern, pattern, pattern, pattern)
}

// CreateCopy inserts a copy at the next position for its book.
func (s *Store) CreateCopy(ctx context.Context, copyRecord application.Copy) (application.Copy, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var position int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position), 0) + 1 FROM copies WHERE book_id = ?`,
			copyRecord.BookID,
		).Scan(&position); err != nil {
			return mapError(err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO copies (id, book_id, status, position, created_at) VALUES (?, ?, ?, ?, ?)`,
			copyRecord.ID, copyRecord.BookID, string(copyRecord.Status), position, formatTime(copyRecord.CreatedAt),
		); err != nil {
			return mapError(err)
		}
		return nil
	})
	if err != nil {
		return application.Copy{}, err
	}
	return copyRecord, nil
}

// GetCopy retrieves a copy by ID.
func (s *Store) GetCopy(ctx context.Context, id string) (application.Copy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, book_id, status, created_at FROM copies WHERE id = ?`, id)

	var copyRecord application.Copy
	var status, createdAt string
	err := row.Scan(&copyRecord.ID, &copyRecord.BookID, &status, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return application.Copy{}, persistence.ErrNotFound
		}
		return application.Copy{}, mapError(err)
	}
	copyRecord.Status = application.CopyStatus(status)
	if copyRecord.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Copy{}, err
	}
	return copyRecord, nil
}

// UpdateCopy replaces an existing copy row. Position is immutable.
func (s *Store) UpdateCopy(ctx context.Context, copyRecord application.Copy) (application.Copy, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE copies SET status = ? WHERE id = ?`,
		string(copyRecord.Status), copyRecord.ID,
	)
	if err != nil {
		return application.Copy{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return application.Copy{}, err
	}
	if affected == 0 {
		return application.Copy{}, persistence.ErrNotFound
	}
	return copyRecord, nil
}

// ListCopiesForBook returns the book's copies in creation order.
func (s *Store) ListCopiesForBook(ctx context.Context, bookID string) ([]application.Copy, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, book_id, status, created_at FROM copies WHERE book_id = ? ORDER BY position`, bookID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var copies []application.Copy
	for rows.Next() {
		var copyRecord application.Copy
		var status, createdAt string
		if err := rows.Scan(&copyRecord.ID, &copyRecord.BookID, &status, &createdAt); err != nil {
			return nil, mapError(err)
		}
		copyRecord.Status = application.CopyStatus(status)
		if copyRecord.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		copies = append(copies, copyRecord)
	}
	return copies, rows.Err()
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...any) ([]application.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var books []application.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range books {
		if books[i].Tags, err = s.listTags(ctx, books[i].ID); err != nil {
			return nil, err
		}
	}
	return books, nil
}

func (s *Store) listTags(ctx context.Context, bookID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag FROM book_tags WHERE book_id = ? ORDER BY position`, bookID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, mapError(err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func scanBook(row rowScanner) (application.Book, error) {
	var book application.Book
	var createdAt string
	err := row.Scan(&book.ID, &book.Title, &book.Author, &book.ISBN, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return application.Book{}, persistence.ErrNotFound
		}
		return application.Book{}, mapError(err)
	}
	if book.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Book{}, err
	}
	return book, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

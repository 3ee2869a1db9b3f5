package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/bookhive/internal/persistence"
)

// BookRepository captures the persistence operations needed by the catalog
// service. Copies for a book are always listed in creation order.
type BookRepository interface {
	CreateBook(ctx context.Context, book Book) (Book, error)
	GetBook(ctx context.Context, id string) (Book, error)
	ListBooks(ctx context.Context) ([]Book, error)
	SearchBooks(ctx context.Context, text string) ([]Book, error)
	CreateCopy(ctx context.Context, copy Copy) (Copy, error)
	ListCopiesForBook(ctx context.Context, bookID string) ([]Copy, error)
}

// CatalogService orchestrates book and copy creation plus catalogue search.
type CatalogService struct {
	books       BookRepository
	idGenerator func() string
	copyIDs     func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCatalogService wires dependencies for the catalog service. Book and
// copy identifiers come from separate generators so each keeps its prefix.
func NewCatalogService(books BookRepository, idGenerator, copyIDGenerator func() string, now func() time.Time) *CatalogService {
	return NewCatalogServiceWithLogger(books, idGenerator, copyIDGenerator, now, nil)
}

// NewCatalogServiceWithLogger wires dependencies including an explicit logger.
func NewCatalogServiceWithLogger(books BookRepository, idGenerator, copyIDGenerator func() string, now func() time.Time, logger *slog.Logger) *CatalogService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if copyIDGenerator == nil {
		copyIDGenerator = idGenerator
	}
	if now == nil {
		now = time.Now
	}
	return &CatalogService{
		books:       books,
		idGenerator: idGenerator,
		copyIDs:     copyIDGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *CatalogService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if s == nil {
		return slog.Default()
	}
	return serviceLogger(ctx, s.logger, "CatalogService", operation, attrs...)
}

// AddBook validates input, persists the book, and creates the requested
// number of copies (at least one).
func (s *CatalogService) AddBook(ctx context.Context, params AddBookParams) (Book, error) {
	if s == nil {
		return Book{}, fmt.Errorf("CatalogService is nil")
	}

	normalized := normalizeAddBookInput(params)
	vErr := validateAddBookInput(normalized)
	if vErr.HasErrors() {
		return Book{}, vErr
	}

	createdAt := s.now()
	book := Book{
		ID:        s.idGenerator(),
		Title:     normalized.Title,
		Author:    normalized.Author,
		ISBN:      normalized.ISBN,
		Tags:      normalized.Tags,
		CreatedAt: createdAt,
	}

	if s.books == nil {
		return book, nil
	}

	persisted, err := s.books.CreateBook(ctx, book)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return Book{}, ErrAlreadyExists
		}
		return Book{}, err
	}

	for i := 0; i < normalized.Copies; i++ {
		copyRecord := Copy{
			ID:        s.copyIDs(),
			BookID:    persisted.ID,
			Status:    CopyAvailable,
			CreatedAt: createdAt,
		}
		if _, err := s.books.CreateCopy(ctx, copyRecord); err != nil {
			return Book{}, err
		}
	}

	s.log(ctx, "AddBook", "book_id", persisted.ID, "copies", normalized.Copies).
		InfoContext(ctx, "book catalogued")
	return persisted, nil
}

// Get resolves a book by identifier.
func (s *CatalogService) Get(ctx context.Context, id string) (Book, error) {
	if s == nil {
		return Book{}, fmt.Errorf("CatalogService is nil")
	}
	if s.books == nil {
		return Book{}, fmt.Errorf("book repository not configured")
	}

	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return book, nil
}

// Search returns books whose title, author, ISBN, or any tag contains the
// text, case-insensitively. Blank text matches everything.
func (s *CatalogService) Search(ctx context.Context, text string) ([]Book, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}
	if s.books == nil {
		return nil, nil
	}
	return s.books.SearchBooks(ctx, strings.TrimSpace(text))
}

// AvailableCopies lists the copies of a book currently on the shelf, in
// creation order.
func (s *CatalogService) AvailableCopies(ctx context.Context, bookID string) ([]Copy, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}
	if s.books == nil {
		return nil, nil
	}

	copies, err := s.books.ListCopiesForBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	available := make([]Copy, 0, len(copies))
	for _, c := range copies {
		if c.Status == CopyAvailable {
			available = append(available, c)
		}
	}
	return available, nil
}

// Inventory reports total and available copy counts for every book.
func (s *CatalogService) Inventory(ctx context.Context) ([]InventoryLine, error) {
	if s == nil {
		return nil, fmt.Errorf("CatalogService is nil")
	}
	if s.books == nil {
		return nil, nil
	}

	books, err := s.books.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]InventoryLine, 0, len(books))
	for _, book := range books {
		copies, err := s.books.ListCopiesForBook(ctx, book.ID)
		if err != nil {
			return nil, err
		}
		available := 0
		for _, c := range copies {
			if c.Status == CopyAvailable {
				available++
			}
		}
		lines = append(lines, InventoryLine{
			Book:            book,
			TotalCopies:     len(copies),
			AvailableCopies: available,
		})
	}
	return lines, nil
}

func normalizeAddBookInput(params AddBookParams) AddBookParams {
	tags := make([]string, 0, len(params.Tags))
	for _, tag := range params.Tags {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	if len(tags) == 0 {
		tags = nil
	}

	copies := params.Copies
	if copies < 1 {
		copies = 1
	}

	return AddBookParams{
		Title:  strings.TrimSpace(params.Title),
		Author: strings.TrimSpace(params.Author),
		ISBN:   strings.TrimSpace(params.ISBN),
		Tags:   tags,
		Copies: copies,
	}
}

func validateAddBookInput(params AddBookParams) *ValidationError {
	vErr := &ValidationError{}

	if params.Title == "" {
		vErr.add("title", "title is required")
	}
	if params.Author == "" {
		vErr.add("author", "author is required")
	}
	if params.ISBN == "" {
		vErr.add("isbn", "isbn is required")
	}

	return vErr
}

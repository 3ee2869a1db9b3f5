// Package memory provides the in-process storage backend. It implements
// every repository interface declared by the application services with
// mutex-guarded maps and clone-on-read semantics, keeping copy and
// reservation enumeration deterministic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/example/bookhive/internal/application"
	"github.com/example/bookhive/internal/persistence"
)

// Store holds all library entities for a single process run.
type Store struct {
	mu sync.RWMutex

	users map[string]application.User

	books     map[string]application.Book
	bookOrder []string

	copies map[string]application.Copy
	// copyOrder preserves creation order per book; checkout scans it for
	// the first available copy.
	copyOrder map[string][]string

	loans     map[string]application.Loan
	loanOrder []string

	reservations     map[string]application.Reservation
	reservationOrder []string

	fines     map[string]application.Fine
	fineOrder []string
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:        make(map[string]application.User),
		books:        make(map[string]application.Book),
		copies:       make(map[string]application.Copy),
		copyOrder:    make(map[string][]string),
		loans:        make(map[string]application.Loan),
		reservations: make(map[string]application.Reservation),
		fines:        make(map[string]application.Fine),
	}
}

// --- UserRepository ---

// CreateUser stores a new user.
func (s *Store) CreateUser(ctx context.Context, user application.User) (application.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return application.User{}, persistence.ErrDuplicate
	}
	s.users[user.ID] = user
	return user, nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (application.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return application.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// UpdateUser replaces an existing user record.
func (s *Store) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return application.User{}, persistence.ErrNotFound
	}
	s.users[user.ID] = user
	return user, nil
}

// ListUsers returns every user ordered by creation time then ID.
func (s *Store) ListUsers(ctx context.Context) ([]application.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]application.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// --- BookRepository ---

// CreateBook stores a new book.
func (s *Store) CreateBook(ctx context.Context, book application.Book) (application.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[book.ID]; ok {
		return application.Book{}, persistence.ErrDuplicate
	}
	s.books[book.ID] = cloneBook(book)
	s.bookOrder = append(s.bookOrder, book.ID)
	return book, nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (application.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[id]
	if !ok {
		return application.Book{}, persistence.ErrNotFound
	}
	return cloneBook(book), nil
}

// ListBooks returns every book in catalogue order.
func (s *Store) ListBooks(ctx context.Context) ([]application.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]application.Book, 0, len(s.bookOrder))
	for _, id := range s.bookOrder {
		books = append(books, cloneBook(s.books[id]))
	}
	return books, nil
}

// SearchBooks returns books whose title, author, ISBN, or any tag contains
// the text, case-insensitively, in catalogue order.
func (s *Store) SearchBooks(ctx context.Context, text string) ([]application.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(text))
	matches := make([]application.Book, 0)
	for _, id := range s.bookOrder {
		book := s.books[id]
		if bookMatches(book, needle) {
			matches = append(matches, cloneBook(book))
		}
	}
	return matches, nil
}

// CreateCopy stores a new copy, appended to its book's creation order.
func (s *Store) CreateCopy(ctx context.Context, copyRecord application.Copy) (application.Copy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.copies[copyRecord.ID]; ok {
		return application.Copy{}, persistence.ErrDuplicate
	}
	if _, ok := s.books[copyRecord.BookID]; !ok {
		return application.Copy{}, persistence.ErrNotFound
	}
	s.copies[copyRecord.ID] = copyRecord
	s.copyOrder[copyRecord.BookID] = append(s.copyOrder[copyRecord.BookID], copyRecord.ID)
	return copyRecord, nil
}

// GetCopy retrieves a copy by ID.
func (s *Store) GetCopy(ctx context.Context, id string) (application.Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copyRecord, ok := s.copies[id]
	if !ok {
		return application.Copy{}, persistence.ErrNotFound
	}
	return copyRecord, nil
}

// UpdateCopy replaces an existing copy record.
func (s *Store) UpdateCopy(ctx context.Context, copyRecord application.Copy) (application.Copy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.copies[copyRecord.ID]; !ok {
		return application.Copy{}, persistence.ErrNotFound
	}
	s.copies[copyRecord.ID] = copyRecord
	return copyRecord, nil
}

// ListCopiesForBook returns the book's copies in creation order.
func (s *Store) ListCopiesForBook(ctx context.Context, bookID string) ([]application.Copy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.copyOrder[bookID]
	copies := make([]application.Copy, 0, len(ids))
	for _, id := range ids {
		copies = append(copies, s.copies[id])
	}
	return copies, nil
}

// --- LoanRepository ---

// CreateLoan stores a new loan.
func (s *Store) CreateLoan(ctx context.Context, loan application.Loan) (application.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loans[loan.ID]; ok {
		return application.Loan{}, persistence.ErrDuplicate
	}
	s.loans[loan.ID] = cloneLoan(loan)
	s.loanOrder = append(s.loanOrder, loan.ID)
	return loan, nil
}

// GetLoan retrieves a loan by ID.
func (s *Store) GetLoan(ctx context.Context, id string) (application.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, ok := s.loans[id]
	if !ok {
		return application.Loan{}, persistence.ErrNotFound
	}
	return cloneLoan(loan), nil
}

// UpdateLoan replaces an existing loan record.
func (s *Store) UpdateLoan(ctx context.Context, loan application.Loan) (application.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loans[loan.ID]; !ok {
		return application.Loan{}, persistence.ErrNotFound
	}
	s.loans[loan.ID] = cloneLoan(loan)
	return loan, nil
}

// ListLoansByUser returns the user's loans in creation order.
func (s *Store) ListLoansByUser(ctx context.Context, userID string) ([]application.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loans := make([]application.Loan, 0)
	for _, id := range s.loanOrder {
		loan := s.loans[id]
		if loan.UserID == userID {
			loans = append(loans, cloneLoan(loan))
		}
	}
	return loans, nil
}

// ListOpenLoans returns every loan without a return timestamp, in creation order.
func (s *Store) ListOpenLoans(ctx context.Context) ([]application.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loans := make([]application.Loan, 0)
	for _, id := range s.loanOrder {
		loan := s.loans[id]
		if loan.ReturnedAt == nil {
			loans = append(loans, cloneLoan(loan))
		}
	}
	return loans, nil
}

// --- ReservationRepository ---

// CreateReservation stores a new reservation.
func (s *Store) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[reservation.ID]; ok {
		return application.Reservation{}, persistence.ErrDuplicate
	}
	s.reservations[reservation.ID] = reservation
	s.reservationOrder = append(s.reservationOrder, reservation.ID)
	return reservation, nil
}

// UpdateReservation replaces an existing reservation record.
func (s *Store) UpdateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[reservation.ID]; !ok {
		return application.Reservation{}, persistence.ErrNotFound
	}
	s.reservations[reservation.ID] = reservation
	return reservation, nil
}

// ListActiveReservationsForBook returns the book's Active reservations in
// FIFO order: PlacedAt ascending, reservation ID as tie-break.
func (s *Store) ListActiveReservationsForBook(ctx context.Context, bookID string) ([]application.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queue := make([]application.Reservation, 0)
	for _, id := range s.reservationOrder {
		reservation := s.reservations[id]
		if reservation.BookID == bookID && reservation.Status == application.ReservationActive {
			queue = append(queue, reservation)
		}
	}
	sort.SliceStable(queue, func(i, j int) bool {
		if queue[i].PlacedAt.Equal(queue[j].PlacedAt) {
			return queue[i].ID < queue[j].ID
		}
		return queue[i].PlacedAt.Before(queue[j].PlacedAt)
	})
	return queue, nil
}

// ListReservationsByUser returns the user's reservations in creation order.
func (s *Store) ListReservationsByUser(ctx context.Context, userID string) ([]application.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservations := make([]application.Reservation, 0)
	for _, id := range s.reservationOrder {
		reservation := s.reservations[id]
		if reservation.UserID == userID {
			reservations = append(reservations, reservation)
		}
	}
	return reservations, nil
}

// --- FineRepository ---

// CreateFine stores a new fine.
func (s *Store) CreateFine(ctx context.Context, fine application.Fine) (application.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fines[fine.ID]; ok {
		return application.Fine{}, persistence.ErrDuplicate
	}
	s.fines[fine.ID] = cloneFine(fine)
	s.fineOrder = append(s.fineOrder, fine.ID)
	return fine, nil
}

// UpdateFine replaces an existing fine record.
func (s *Store) UpdateFine(ctx context.Context, fine application.Fine) (application.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fines[fine.ID]; !ok {
		return application.Fine{}, persistence.ErrNotFound
	}
	s.fines[fine.ID] = cloneFine(fine)
	return fine, nil
}

// ListUnpaidFinesByUser returns the user's unpaid fines in creation order.
func (s *Store) ListUnpaidFinesByUser(ctx context.Context, userID string) ([]application.Fine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fines := make([]application.Fine, 0)
	for _, id := range s.fineOrder {
		fine := s.fines[id]
		if fine.UserID == userID && fine.PaidAt == nil {
			fines = append(fines, cloneFine(fine))
		}
	}
	return fines, nil
}

func bookMatches(book application.Book, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(book.Title), needle) ||
		strings.Contains(strings.ToLower(book.Author), needle) ||
		strings.Contains(strings.ToLower(book.ISBN), needle) {
		return true
	}
	for _, tag := range book.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func cloneBook(book application.Book) application.Book {
	clone := book
	clone.Tags = append([]string(nil), book.Tags...)
	if len(clone.Tags) == 0 {
		clone.Tags = nil
	}
	return clone
}

func cloneLoan(loan application.Loan) application.Loan {
	clone := loan
	if loan.ReturnedAt != nil {
		returnedAt := *loan.ReturnedAt
		clone.ReturnedAt = &returnedAt
	}
	return clone
}

func cloneFine(fine application.Fine) application.Fine {
	clone := fine
	if fine.PaidAt != nil {
		paidAt := *fine.PaidAt
		clone.PaidAt = &paidAt
	}
	return clone
}

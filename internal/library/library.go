// Package library wires the application services over a single storage
// backend and exposes the top-level operation surface used by the HTTP
// layer, the seed loader, and scenario tests.
package library

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/bookhive/internal/application"
	"github.com/example/bookhive/internal/idgen"
)

// Store is the combined persistence surface a backend must implement.
// Both the in-memory store and the SQLite store satisfy it.
type Store interface {
	application.UserRepository
	application.BookRepository
	application.CopyStore
	application.LoanRepository
	application.ReservationRepository
	application.FineRepository
}

// Options tunes the assembled services. Zero values select the defaults.
type Options struct {
	LoanPeriodDays int
	DailyFineCents int64
	BorrowLimit    int
	Metrics        application.MetricsRecorder
	Logger         *slog.Logger
	Now            func() time.Time
}

// Library bundles the assembled services. The Store field is exported so
// callers with administrative needs, such as the seed loader backdating a
// loan, can reach the persistence layer directly.
type Library struct {
	Store       Store
	Users       *application.UserService
	Catalog     *application.CatalogService
	Circulation *application.CirculationService
	Fines       *application.FineService

	now func() time.Time
}

// New assembles the services over the given store.
func New(store Store, opts Options) *Library {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	fines := application.NewFineServiceWithOptions(
		store, idgen.New("fine"), now, opts.DailyFineCents, opts.Logger)
	users := application.NewUserServiceWithLogger(
		store, fines, idgen.New("usr"), now, opts.Logger)
	catalog := application.NewCatalogServiceWithLogger(
		store, idgen.New("bk"), idgen.New("cpy"), now, opts.Logger)
	circulation := application.NewCirculationServiceWithOptions(
		store, store, store, store, fines, idgen.New("loan"), now,
		application.CirculationOptions{
			LoanPeriodDays:         opts.LoanPeriodDays,
			BorrowLimit:            opts.BorrowLimit,
			ReservationIDGenerator: idgen.New("res"),
			Metrics:                opts.Metrics,
			Logger:                 opts.Logger,
		})

	return &Library{
		Store:       store,
		Users:       users,
		Catalog:     catalog,
		Circulation: circulation,
		Fines:       fines,
		now:         now,
	}
}

// CreateUser registers a new user.
func (l *Library) CreateUser(ctx context.Context, params application.RegisterUserParams) (application.User, error) {
	return l.Users.Register(ctx, params)
}

// GetUser resolves a user by identifier.
func (l *Library) GetUser(ctx context.Context, id string) (application.User, error) {
	return l.Users.Get(ctx, id)
}

// ListUsers returns every registered user.
func (l *Library) ListUsers(ctx context.Context) ([]application.User, error) {
	return l.Users.List(ctx)
}

// AddBook catalogues a new title and its copies.
func (l *Library) AddBook(ctx context.Context, params application.AddBookParams) (application.Book, error) {
	return l.Catalog.AddBook(ctx, params)
}

// SearchBooks returns books matching the text across title, author, ISBN,
// and tags.
func (l *Library) SearchBooks(ctx context.Context, text string) ([]application.Book, error) {
	return l.Catalog.Search(ctx, text)
}

// Checkout lends an available copy of the book to the user.
func (l *Library) Checkout(ctx context.Context, userID, bookID string) (application.CheckoutDecision, error) {
	return l.Circulation.Checkout(ctx, application.CheckoutParams{UserID: userID, BookID: bookID})
}

// ReturnLoan closes the loan and reports any assessed fine.
func (l *Library) ReturnLoan(ctx context.Context, loanID string) (application.ReturnDecision, error) {
	return l.Circulation.Return(ctx, application.ReturnParams{LoanID: loanID})
}

// Reserve places the user at the back of the book's reservation queue.
func (l *Library) Reserve(ctx context.Context, userID, bookID string) (application.Reservation, error) {
	return l.Circulation.Reserve(ctx, application.ReserveParams{UserID: userID, BookID: bookID})
}

// PayAllFines settles every unpaid fine for the user and returns the total
// paid in major currency units.
func (l *Library) PayAllFines(ctx context.Context, userID string) (float64, error) {
	cents, err := l.Fines.PayAll(ctx, userID, l.now())
	if err != nil {
		return 0, err
	}
	return float64(cents) / 100, nil
}

// BlockIfUnpaidFines deactivates the user when their unpaid fines exceed
// the blocking threshold. It reports whether the user was deactivated.
func (l *Library) BlockIfUnpaidFines(ctx context.Context, userID string) (bool, error) {
	return l.Users.BlockIfUnpaidFines(ctx, userID)
}

// UserLoans returns every loan, open or closed, held by the user.
func (l *Library) UserLoans(ctx context.Context, userID string) ([]application.Loan, error) {
	return l.Circulation.ListUserLoans(ctx, userID)
}

// ReportOverdue returns every open loan past its due date.
func (l *Library) ReportOverdue(ctx context.Context) ([]application.Loan, error) {
	return l.Circulation.ListOverdue(ctx, l.now())
}

// ReportInventory summarises total and available copy counts per book.
func (l *Library) ReportInventory(ctx context.Context) ([]application.InventoryLine, error) {
	return l.Catalog.Inventory(ctx)
}

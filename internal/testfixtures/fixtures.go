// Package testfixtures supplies deterministic clocks, identifier
// generators, and record builders shared by package tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/bookhive/internal/application"
)

var (
	userCounter        uint64
	bookCounter        uint64
	copyCounter        uint64
	loanCounter        uint64
	reservationCounter uint64
	fineCounter        uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserOption configures the generated user record.
type UserOption func(*application.User)

// NewUser returns a deterministic active member with optional overrides.
func NewUser(opts ...UserOption) application.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("usr-%03d", idx)
	user := application.User{
		ID:        id,
		Name:      fmt.Sprintf("User %03d", idx),
		Email:     fmt.Sprintf("%s@example.com", id),
		Role:      application.RoleMember,
		Active:    true,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *application.User) {
		u.ID = id
	}
}

// WithUserRole overrides the generated role.
func WithUserRole(role application.Role) UserOption {
	return func(u *application.User) {
		u.Role = role
	}
}

// WithUserActive sets the active flag on the generated record.
func WithUserActive(active bool) UserOption {
	return func(u *application.User) {
		u.Active = active
	}
}

// ----------------------------- Book fixtures -----------------------------

// BookOption configures the generated book record.
type BookOption func(*application.Book)

// NewBook returns a deterministic book with optional overrides.
func NewBook(opts ...BookOption) application.Book {
	idx := atomic.AddUint64(&bookCounter, 1)
	book := application.Book{
		ID:        fmt.Sprintf("bk-%03d", idx),
		Title:     fmt.Sprintf("Book %03d", idx),
		Author:    fmt.Sprintf("Author %03d", idx),
		ISBN:      fmt.Sprintf("978-0-00-%06d-0", idx),
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&book)
	}
	return book
}

// WithBookID overrides the generated book ID.
func WithBookID(id string) BookOption {
	return func(b *application.Book) {
		b.ID = id
	}
}

// WithBookTags sets the tags on the generated record.
func WithBookTags(tags ...string) BookOption {
	return func(b *application.Book) {
		b.Tags = tags
	}
}

// ----------------------------- Copy fixtures -----------------------------

// CopyOption configures the generated copy record.
type CopyOption func(*application.Copy)

// NewCopy returns a deterministic available copy for the given book.
func NewCopy(bookID string, opts ...CopyOption) application.Copy {
	idx := atomic.AddUint64(&copyCounter, 1)
	record := application.Copy{
		ID:        fmt.Sprintf("cpy-%03d", idx),
		BookID:    bookID,
		Status:    application.CopyAvailable,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Second),
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithCopyID overrides the generated copy ID.
func WithCopyID(id string) CopyOption {
	return func(c *application.Copy) {
		c.ID = id
	}
}

// WithCopyStatus overrides the generated status.
func WithCopyStatus(status application.CopyStatus) CopyOption {
	return func(c *application.Copy) {
		c.Status = status
	}
}

// ----------------------------- Loan fixtures -----------------------------

// LoanOption configures the generated loan record.
type LoanOption func(*application.Loan)

// NewLoan returns a deterministic open loan linking the user and copy. The
// due date falls fourteen days after checkout.
func NewLoan(userID, copyID string, opts ...LoanOption) application.Loan {
	idx := atomic.AddUint64(&loanCounter, 1)
	checkout := referenceTime.Add(time.Duration(idx) * time.Minute)
	loan := application.Loan{
		ID:         fmt.Sprintf("loan-%03d", idx),
		UserID:     userID,
		CopyID:     copyID,
		CheckoutAt: checkout,
		DueAt:      checkout.AddDate(0, 0, 14),
	}
	for _, opt := range opts {
		opt(&loan)
	}
	return loan
}

// WithLoanID overrides the generated loan ID.
func WithLoanID(id string) LoanOption {
	return func(l *application.Loan) {
		l.ID = id
	}
}

// WithLoanDueAt overrides the generated due date.
func WithLoanDueAt(due time.Time) LoanOption {
	return func(l *application.Loan) {
		l.DueAt = due
	}
}

// WithLoanReturnedAt marks the generated loan as returned at the given time.
func WithLoanReturnedAt(returned time.Time) LoanOption {
	return func(l *application.Loan) {
		l.ReturnedAt = &returned
	}
}

// ------------------------- Reservation fixtures --------------------------

// ReservationOption configures the generated reservation record.
type ReservationOption func(*application.Reservation)

// NewReservation returns a deterministic active reservation.
func NewReservation(userID, bookID string, opts ...ReservationOption) application.Reservation {
	idx := atomic.AddUint64(&reservationCounter, 1)
	reservation := application.Reservation{
		ID:       fmt.Sprintf("res-%03d", idx),
		UserID:   userID,
		BookID:   bookID,
		PlacedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
		Status:   application.ReservationActive,
	}
	for _, opt := range opts {
		opt(&reservation)
	}
	return reservation
}

// WithReservationPlacedAt overrides the generated placement time.
func WithReservationPlacedAt(placed time.Time) ReservationOption {
	return func(r *application.Reservation) {
		r.PlacedAt = placed
	}
}

// WithReservationStatus overrides the generated status.
func WithReservationStatus(status application.ReservationStatus) ReservationOption {
	return func(r *application.Reservation) {
		r.Status = status
	}
}

// ----------------------------- Fine fixtures -----------------------------

// FineOption configures the generated fine record.
type FineOption func(*application.Fine)

// NewFine returns a deterministic unpaid fine for the given user.
func NewFine(userID string, amountCents int64, opts ...FineOption) application.Fine {
	idx := atomic.AddUint64(&fineCounter, 1)
	fine := application.Fine{
		ID:          fmt.Sprintf("fine-%03d", idx),
		UserID:      userID,
		AmountCents: amountCents,
		Reason:      fmt.Sprintf("overdue fine %03d", idx),
		CreatedAt:   referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fine)
	}
	return fine
}

// WithFinePaidAt marks the generated fine as paid at the given time.
func WithFinePaidAt(paid time.Time) FineOption {
	return func(f *application.Fine) {
		f.PaidAt = &paid
	}
}

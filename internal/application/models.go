package application

import "time"

// Role classifies a user account. All three roles may borrow; the distinction
// exists for reporting and future policy hooks.
type Role string

const (
	// RoleMember is the default patron role.
	RoleMember Role = "member"
	// RoleLibrarian identifies library staff.
	RoleLibrarian Role = "librarian"
	// RoleAdmin identifies administrative staff.
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the defined values.
func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleLibrarian, RoleAdmin:
		return true
	}
	return false
}

// User is a registered library patron or staff member.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	Active    bool
	CreatedAt time.Time
}

// CanBorrow reports whether the user may initiate a checkout. Inactive
// accounts never qualify regardless of role.
func (u User) CanBorrow() bool {
	if !u.Active {
		return false
	}
	return u.Role.Valid()
}

// Book is a catalogued title. Books are immutable after creation.
type Book struct {
	ID        string
	Title     string
	Author    string
	ISBN      string
	Tags      []string
	CreatedAt time.Time
}

// CopyStatus tracks the circulation state of a physical copy.
type CopyStatus string

const (
	// CopyAvailable marks a copy on the shelf.
	CopyAvailable CopyStatus = "available"
	// CopyCheckedOut marks a copy held by an open loan.
	CopyCheckedOut CopyStatus = "checked_out"
	// CopyLost marks a copy reported missing.
	CopyLost CopyStatus = "lost"
	// CopyMaintenance marks a copy withdrawn for repair.
	CopyMaintenance CopyStatus = "maintenance"
)

// Copy is one loanable physical instance of a book. Copies are enumerated in
// creation order so copy selection stays deterministic.
type Copy struct {
	ID        string
	BookID    string
	Status    CopyStatus
	CreatedAt time.Time
}

// Loan links a user and a copy. A loan is open while ReturnedAt is nil; once
// set it is never cleared.
type Loan struct {
	ID         string
	UserID     string
	CopyID     string
	CheckoutAt time.Time
	DueAt      time.Time
	ReturnedAt *time.Time
}

// IsOverdue reports whether the loan is open and past due relative to now.
func (l Loan) IsOverdue(now time.Time) bool {
	return l.ReturnedAt == nil && now.After(l.DueAt)
}

// ReservationStatus tracks the lifecycle of a reservation queue entry.
type ReservationStatus string

const (
	// ReservationActive marks a reservation waiting in the queue.
	ReservationActive ReservationStatus = "active"
	// ReservationFulfilled marks a reservation consumed by a checkout.
	ReservationFulfilled ReservationStatus = "fulfilled"
	// ReservationCancelled marks a withdrawn reservation.
	ReservationCancelled ReservationStatus = "cancelled"
)

// Reservation is a queue entry for a book. Active reservations for a book
// form a FIFO queue ordered by PlacedAt.
type Reservation struct {
	ID       string
	UserID   string
	BookID   string
	PlacedAt time.Time
	Status   ReservationStatus
}

// Fine is a monetary penalty in minor currency units. Fines are never
// amended after creation, only paid.
type Fine struct {
	ID          string
	UserID      string
	AmountCents int64
	Reason      string
	CreatedAt   time.Time
	PaidAt      *time.Time
}

// IsPaid reports whether the fine has been settled.
func (f Fine) IsPaid() bool {
	return f.PaidAt != nil
}

// RegisterUserParams captures caller provided registration fields.
type RegisterUserParams struct {
	Name  string
	Email string
	Role  Role
}

// AddBookParams captures caller provided catalogue fields. Copies below one
// are normalised to a single copy.
type AddBookParams struct {
	Title  string
	Author string
	ISBN   string
	Tags   []string
	Copies int
}

// CheckoutParams identifies a checkout request. Now is the reference instant
// for the loan period; when zero the service clock is used.
type CheckoutParams struct {
	UserID string
	BookID string
	Now    time.Time
}

// ReturnParams identifies a return request.
type ReturnParams struct {
	LoanID string
	Now    time.Time
}

// ReserveParams identifies a reservation request.
type ReserveParams struct {
	UserID string
	BookID string
	Now    time.Time
}

// DenialReason is a stable code describing why a circulation request was not
// fulfilled. Denials are ordinary results, not errors.
type DenialReason string

const (
	// DenialUserNotEligible covers unknown and inactive users.
	DenialUserNotEligible DenialReason = "user_not_eligible"
	// DenialReservedByAnotherUser means a different user is first in the
	// reservation queue.
	DenialReservedByAnotherUser DenialReason = "reserved_by_another_user"
	// DenialNoCopiesAvailable means every copy is checked out, lost, or in
	// maintenance.
	DenialNoCopiesAvailable DenialReason = "no_copies_available"
	// DenialInvalidLoan covers unknown and already returned loans.
	DenialInvalidLoan DenialReason = "invalid_loan"
)

// CheckoutDecision is the outcome of a checkout request. Exactly one of Loan
// and Denial is set.
type CheckoutDecision struct {
	Loan   *Loan
	Denial DenialReason
}

// Denied reports whether the checkout was refused.
func (d CheckoutDecision) Denied() bool {
	return d.Loan == nil
}

// ReturnDecision is the outcome of a return request. NotifyUserID carries
// the first user in the book's reservation queue as an advisory notice; no
// state transition is implied.
type ReturnDecision struct {
	Loan         *Loan
	Fine         *Fine
	NotifyUserID string
	Denial       DenialReason
}

// Denied reports whether the return was refused.
func (d ReturnDecision) Denied() bool {
	return d.Loan == nil
}

// InventoryLine summarises copy availability for one book.
type InventoryLine struct {
	Book            Book
	TotalCopies     int
	AvailableCopies int
}

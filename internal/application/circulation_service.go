package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/bookhive/internal/persistence"
)

// DefaultLoanPeriodDays is the fixed loan period applied at checkout.
const DefaultLoanPeriodDays = 14

// DefaultBorrowLimit is the configured per-user loan cap. It is carried on
// the service but not consulted during checkout; see DESIGN.md.
const DefaultBorrowLimit = 5

// LoanRepository captures the persistence operations needed for loans.
type LoanRepository interface {
	CreateLoan(ctx context.Context, loan Loan) (Loan, error)
	GetLoan(ctx context.Context, id string) (Loan, error)
	UpdateLoan(ctx context.Context, loan Loan) (Loan, error)
	ListLoansByUser(ctx context.Context, userID string) ([]Loan, error)
	ListOpenLoans(ctx context.Context) ([]Loan, error)
}

// ReservationRepository captures the persistence operations needed for the
// reservation queue. ListActiveReservationsForBook returns Active entries in
// FIFO order (PlacedAt ascending, ID as tie-break).
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	ListActiveReservationsForBook(ctx context.Context, bookID string) ([]Reservation, error)
	ListReservationsByUser(ctx context.Context, userID string) ([]Reservation, error)
}

// CopyStore exposes the copy operations the engine needs to allocate and
// free physical copies.
type CopyStore interface {
	GetCopy(ctx context.Context, id string) (Copy, error)
	UpdateCopy(ctx context.Context, copy Copy) (Copy, error)
	ListCopiesForBook(ctx context.Context, bookID string) ([]Copy, error)
}

// UserDirectory exposes user lookup for the eligibility check.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// FineAssessor is invoked against a freshly closed loan on return.
type FineAssessor interface {
	Assess(ctx context.Context, loan Loan, now time.Time) (*Fine, error)
}

// MetricsRecorder observes circulation outcomes. Implementations must be
// safe for concurrent use; a nil recorder disables observation.
type MetricsRecorder interface {
	RecordCheckout()
	RecordCheckoutDenied(reason string)
	RecordReturn()
	RecordReturnDenied(reason string)
	RecordReservation()
	RecordFineAssessed(amountCents int64)
}

// CirculationOptions tunes the engine beyond its required dependencies.
// ReservationIDGenerator, when set, is used for reservation IDs instead of
// the loan ID generator.
type CirculationOptions struct {
	LoanPeriodDays         int
	BorrowLimit            int
	ReservationIDGenerator func() string
	Metrics                MetricsRecorder
	Logger                 *slog.Logger
}

// CirculationService is the circulation engine. It orchestrates checkout,
// return, and reservation placement, enforcing copy allocation and queue
// priority invariants and triggering fine assessment on return.
//
// All mutating operations serialise on a single mutex so that copy status
// transitions behave as atomic check-and-set: two concurrent checkouts of
// the last available copy cannot both observe it as available.
type CirculationService struct {
	mu sync.Mutex

	users        UserDirectory
	copies       CopyStore
	loans        LoanRepository
	reservations ReservationRepository
	fines        FineAssessor

	idGenerator            func() string
	reservationIDGenerator func() string
	now                    func() time.Time

	loanPeriod  time.Duration
	borrowLimit int
	metrics     MetricsRecorder
	logger      *slog.Logger
}

// NewCirculationService wires dependencies for the circulation engine with
// default options.
func NewCirculationService(users UserDirectory, copies CopyStore, loans LoanRepository, reservations ReservationRepository, fines FineAssessor, idGenerator func() string, now func() time.Time) *CirculationService {
	return NewCirculationServiceWithOptions(users, copies, loans, reservations, fines, idGenerator, now, CirculationOptions{})
}

// NewCirculationServiceWithOptions wires dependencies with explicit options.
func NewCirculationServiceWithOptions(users UserDirectory, copies CopyStore, loans LoanRepository, reservations ReservationRepository, fines FineAssessor, idGenerator func() string, now func() time.Time, opts CirculationOptions) *CirculationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	loanPeriodDays := opts.LoanPeriodDays
	if loanPeriodDays < 1 {
		loanPeriodDays = DefaultLoanPeriodDays
	}
	borrowLimit := opts.BorrowLimit
	if borrowLimit < 1 {
		borrowLimit = DefaultBorrowLimit
	}
	reservationIDs := opts.ReservationIDGenerator
	if reservationIDs == nil {
		reservationIDs = idGenerator
	}
	return &CirculationService{
		users:                  users,
		copies:                 copies,
		loans:                  loans,
		reservations:           reservations,
		fines:                  fines,
		idGenerator:            idGenerator,
		reservationIDGenerator: reservationIDs,
		now:                    now,
		loanPeriod:             time.Duration(loanPeriodDays) * 24 * time.Hour,
		borrowLimit:            borrowLimit,
		metrics:                opts.Metrics,
		logger:                 defaultLogger(opts.Logger),
	}
}

func (s *CirculationService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if s == nil {
		return slog.Default()
	}
	return serviceLogger(ctx, s.logger, "CirculationService", operation, attrs...)
}

func (s *CirculationService) resolveNow(explicit time.Time) time.Time {
	if !explicit.IsZero() {
		return explicit
	}
	return s.now()
}

// Checkout allocates the first available copy of a book to an eligible user
// and opens a loan due one loan period later. The request is denied, not
// failed, when the user is ineligible, another user is first in the
// reservation queue, or no copy is available. A successful checkout fulfils
// the requester's oldest Active reservation for the book, if any.
func (s *CirculationService) Checkout(ctx context.Context, params CheckoutParams) (CheckoutDecision, error) {
	if s == nil {
		return CheckoutDecision{}, fmt.Errorf("CirculationService is nil")
	}
	if s.users == nil || s.copies == nil || s.loans == nil || s.reservations == nil {
		return CheckoutDecision{}, fmt.Errorf("circulation repositories not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.resolveNow(params.Now)
	logger := s.log(ctx, "Checkout", "user_id", params.UserID, "book_id", params.BookID)

	user, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return s.denyCheckout(ctx, logger, DenialUserNotEligible), nil
		}
		return CheckoutDecision{}, err
	}
	if !user.CanBorrow() {
		return s.denyCheckout(ctx, logger, DenialUserNotEligible), nil
	}

	queue, err := s.reservations.ListActiveReservationsForBook(ctx, params.BookID)
	if err != nil {
		return CheckoutDecision{}, err
	}
	if len(queue) > 0 && queue[0].UserID != params.UserID {
		return s.denyCheckout(ctx, logger, DenialReservedByAnotherUser), nil
	}

	copies, err := s.copies.ListCopiesForBook(ctx, params.BookID)
	if err != nil && !errors.Is(err, persistence.ErrNotFound) {
		return CheckoutDecision{}, err
	}

	var allocated *Copy
	for i := range copies {
		if copies[i].Status == CopyAvailable {
			allocated = &copies[i]
			break
		}
	}
	if allocated == nil {
		return s.denyCheckout(ctx, logger, DenialNoCopiesAvailable), nil
	}

	allocated.Status = CopyCheckedOut
	if _, err := s.copies.UpdateCopy(ctx, *allocated); err != nil {
		return CheckoutDecision{}, err
	}

	loan := Loan{
		ID:         s.idGenerator(),
		UserID:     params.UserID,
		CopyID:     allocated.ID,
		CheckoutAt: now,
		DueAt:      now.Add(s.loanPeriod),
	}
	persisted, err := s.loans.CreateLoan(ctx, loan)
	if err != nil {
		return CheckoutDecision{}, err
	}

	// Fulfil the requester's oldest Active reservation only; further
	// reservations by the same user keep their queue slots.
	for _, reservation := range queue {
		if reservation.UserID != params.UserID || reservation.Status != ReservationActive {
			continue
		}
		reservation.Status = ReservationFulfilled
		if _, err := s.reservations.UpdateReservation(ctx, reservation); err != nil {
			return CheckoutDecision{}, err
		}
		break
	}

	if s.metrics != nil {
		s.metrics.RecordCheckout()
	}
	logger.With("loan_id", persisted.ID, "copy_id", allocated.ID, "due_at", persisted.DueAt).
		InfoContext(ctx, "copy checked out")
	return CheckoutDecision{Loan: &persisted}, nil
}

// Return closes a loan, frees its copy, triggers fine assessment, and
// surfaces the first user in the book's reservation queue as an advisory
// notice. Unknown and already returned loans are denied.
func (s *CirculationService) Return(ctx context.Context, params ReturnParams) (ReturnDecision, error) {
	if s == nil {
		return ReturnDecision{}, fmt.Errorf("CirculationService is nil")
	}
	if s.copies == nil || s.loans == nil || s.reservations == nil {
		return ReturnDecision{}, fmt.Errorf("circulation repositories not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.resolveNow(params.Now)
	logger := s.log(ctx, "Return", "loan_id", params.LoanID)

	loan, err := s.loans.GetLoan(ctx, params.LoanID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return s.denyReturn(ctx, logger, DenialInvalidLoan), nil
		}
		return ReturnDecision{}, err
	}
	if loan.ReturnedAt != nil {
		return s.denyReturn(ctx, logger, DenialInvalidLoan), nil
	}

	returnedAt := now
	loan.ReturnedAt = &returnedAt
	closed, err := s.loans.UpdateLoan(ctx, loan)
	if err != nil {
		return ReturnDecision{}, err
	}

	// A missing copy record is tolerated: the loan still closes and the
	// fine is still assessed, but no queue notice can be produced.
	var bookID string
	copyRecord, err := s.copies.GetCopy(ctx, loan.CopyID)
	switch {
	case err == nil:
		bookID = copyRecord.BookID
		copyRecord.Status = CopyAvailable
		if _, err := s.copies.UpdateCopy(ctx, copyRecord); err != nil {
			return ReturnDecision{}, err
		}
	case errors.Is(err, persistence.ErrNotFound):
		logger.WarnContext(ctx, "copy record missing on return", "copy_id", loan.CopyID)
	default:
		return ReturnDecision{}, err
	}

	var fine *Fine
	if s.fines != nil {
		fine, err = s.fines.Assess(ctx, closed, now)
		if err != nil {
			return ReturnDecision{}, err
		}
		if fine != nil && s.metrics != nil {
			s.metrics.RecordFineAssessed(fine.AmountCents)
		}
	}

	decision := ReturnDecision{Loan: &closed, Fine: fine}
	if bookID != "" {
		queue, err := s.reservations.ListActiveReservationsForBook(ctx, bookID)
		if err != nil {
			return ReturnDecision{}, err
		}
		if len(queue) > 0 {
			decision.NotifyUserID = queue[0].UserID
			logger.InfoContext(ctx, "next reservation holder can collect",
				"book_id", bookID, "notify_user_id", decision.NotifyUserID)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordReturn()
	}
	logger.With("copy_id", loan.CopyID).InfoContext(ctx, "loan returned")
	return decision, nil
}

// Reserve appends an Active reservation to the book's queue. Reservations
// always succeed; duplicates by the same user each consume a queue slot.
func (s *CirculationService) Reserve(ctx context.Context, params ReserveParams) (Reservation, error) {
	if s == nil {
		return Reservation{}, fmt.Errorf("CirculationService is nil")
	}
	if s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation repository not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reservation := Reservation{
		ID:       s.reservationIDGenerator(),
		UserID:   params.UserID,
		BookID:   params.BookID,
		PlacedAt: s.resolveNow(params.Now),
		Status:   ReservationActive,
	}

	persisted, err := s.reservations.CreateReservation(ctx, reservation)
	if err != nil {
		return Reservation{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordReservation()
	}
	s.log(ctx, "Reserve", "user_id", params.UserID, "book_id", params.BookID, "reservation_id", persisted.ID).
		InfoContext(ctx, "reservation placed")
	return persisted, nil
}

// ListOverdue returns every open loan past due relative to now.
func (s *CirculationService) ListOverdue(ctx context.Context, now time.Time) ([]Loan, error) {
	if s == nil {
		return nil, fmt.Errorf("CirculationService is nil")
	}
	if s.loans == nil {
		return nil, nil
	}
	now = s.resolveNow(now)

	open, err := s.loans.ListOpenLoans(ctx)
	if err != nil {
		return nil, err
	}

	overdueLoans := make([]Loan, 0, len(open))
	for _, loan := range open {
		if loan.IsOverdue(now) {
			overdueLoans = append(overdueLoans, loan)
		}
	}
	if len(overdueLoans) == 0 {
		return nil, nil
	}
	return overdueLoans, nil
}

// ListUserLoans returns every loan, open or closed, held by the user.
func (s *CirculationService) ListUserLoans(ctx context.Context, userID string) ([]Loan, error) {
	if s == nil {
		return nil, fmt.Errorf("CirculationService is nil")
	}
	if s.loans == nil {
		return nil, nil
	}
	return s.loans.ListLoansByUser(ctx, userID)
}

func (s *CirculationService) denyCheckout(ctx context.Context, logger *slog.Logger, reason DenialReason) CheckoutDecision {
	if s.metrics != nil {
		s.metrics.RecordCheckoutDenied(string(reason))
	}
	logger.InfoContext(ctx, "checkout denied", "denial", string(reason))
	return CheckoutDecision{Denial: reason}
}

func (s *CirculationService) denyReturn(ctx context.Context, logger *slog.Logger, reason DenialReason) ReturnDecision {
	if s.metrics != nil {
		s.metrics.RecordReturnDenied(string(reason))
	}
	logger.InfoContext(ctx, "return denied", "denial", string(reason))
	return ReturnDecision{Denial: reason}
}

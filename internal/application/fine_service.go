package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/bookhive/internal/overdue"
)

// FineRepository captures the persistence operations needed by the fine service.
type FineRepository interface {
	CreateFine(ctx context.Context, fine Fine) (Fine, error)
	UpdateFine(ctx context.Context, fine Fine) (Fine, error)
	ListUnpaidFinesByUser(ctx context.Context, userID string) ([]Fine, error)
}

// FineService assesses overdue penalties and settles outstanding fines.
type FineService struct {
	fines          FineRepository
	idGenerator    func() string
	now            func() time.Time
	dailyRateCents int64
	logger         *slog.Logger
}

// NewFineService wires dependencies for the fine service with the default
// daily rate.
func NewFineService(fines FineRepository, idGenerator func() string, now func() time.Time) *FineService {
	return NewFineServiceWithOptions(fines, idGenerator, now, overdue.DefaultDailyRateCents, nil)
}

// NewFineServiceWithOptions wires dependencies with an explicit daily rate
// and logger. A rate below one falls back to the default.
func NewFineServiceWithOptions(fines FineRepository, idGenerator func() string, now func() time.Time, dailyRateCents int64, logger *slog.Logger) *FineService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if dailyRateCents < 1 {
		dailyRateCents = overdue.DefaultDailyRateCents
	}
	return &FineService{
		fines:          fines,
		idGenerator:    idGenerator,
		now:            now,
		dailyRateCents: dailyRateCents,
		logger:         defaultLogger(logger),
	}
}

func (s *FineService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if s == nil {
		return slog.Default()
	}
	return serviceLogger(ctx, s.logger, "FineService", operation, attrs...)
}

// Assess computes the overdue penalty for a loan relative to now and persists
// the resulting fine. Returns nil when the loan is on time or the whole-day
// count is zero or less. A closed loan is judged by its return timestamp, an
// open loan by now.
func (s *FineService) Assess(ctx context.Context, loan Loan, now time.Time) (*Fine, error) {
	if s == nil {
		return nil, fmt.Errorf("FineService is nil")
	}
	if now.IsZero() {
		now = s.now()
	}

	var days int
	switch {
	case loan.ReturnedAt != nil && loan.ReturnedAt.After(loan.DueAt):
		days = overdue.Days(loan.DueAt, *loan.ReturnedAt)
	case loan.IsOverdue(now):
		days = overdue.Days(loan.DueAt, now)
	default:
		return nil, nil
	}

	amount := overdue.AmountCents(days, s.dailyRateCents)
	if amount <= 0 {
		return nil, nil
	}

	fine := Fine{
		ID:          s.idGenerator(),
		UserID:      loan.UserID,
		AmountCents: amount,
		Reason:      fmt.Sprintf("overdue %d day(s) for loan %s", days, loan.ID),
		CreatedAt:   now,
	}

	if s.fines == nil {
		return &fine, nil
	}

	persisted, err := s.fines.CreateFine(ctx, fine)
	if err != nil {
		return nil, err
	}

	s.log(ctx, "Assess", "loan_id", loan.ID, "fine_id", persisted.ID, "amount_cents", amount).
		InfoContext(ctx, "fine assessed")
	return &persisted, nil
}

// PayAll settles every unpaid fine for the user at the given instant and
// returns the total settled in minor units. Calling again when nothing is
// outstanding returns zero and mutates nothing.
func (s *FineService) PayAll(ctx context.Context, userID string, now time.Time) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("FineService is nil")
	}
	if s.fines == nil {
		return 0, nil
	}
	if now.IsZero() {
		now = s.now()
	}

	unpaid, err := s.fines.ListUnpaidFinesByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, fine := range unpaid {
		paidAt := now
		fine.PaidAt = &paidAt
		if _, err := s.fines.UpdateFine(ctx, fine); err != nil {
			return total, err
		}
		total += fine.AmountCents
	}

	if total > 0 {
		s.log(ctx, "PayAll", "user_id", userID, "settled_cents", total, "fines", len(unpaid)).
			InfoContext(ctx, "fines settled")
	}
	return total, nil
}

// TotalUnpaid sums the user's outstanding fines in minor units.
func (s *FineService) TotalUnpaid(ctx context.Context, userID string) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("FineService is nil")
	}
	if s.fines == nil {
		return 0, nil
	}

	unpaid, err := s.fines.ListUnpaidFinesByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, fine := range unpaid {
		total += fine.AmountCents
	}
	return total, nil
}

package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/bookhive/internal/application"
)

type circulationService interface {
	Checkout(ctx context.Context, userID, bookID string) (application.CheckoutDecision, error)
	ReturnLoan(ctx context.Context, loanID string) (application.ReturnDecision, error)
	Reserve(ctx context.Context, userID, bookID string) (application.Reservation, error)
	ReportOverdue(ctx context.Context) ([]application.Loan, error)
	UserLoans(ctx context.Context, userID string) ([]application.Loan, error)
}

type CirculationHandler struct {
	service   circulationService
	responder responder
	logger    *slog.Logger
}

func NewCirculationHandler(service circulationService, logger *slog.Logger) *CirculationHandler {
	base := defaultLogger(logger)
	return &CirculationHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CirculationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CirculationHandler", operation, attrs...)
}

func (h *CirculationHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req circulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Checkout", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode checkout request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Checkout", "user_id", req.UserID, "book_id", req.BookID)

	decision, err := h.service.Checkout(r.Context(), req.UserID, req.BookID)
	if err != nil {
		logger.ErrorContext(r.Context(), "checkout failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if decision.Denied() {
		h.responder.writeDenial(r.Context(), w, decision.Denial)
		return
	}

	logger.With("loan_id", decision.Loan.ID).InfoContext(r.Context(), "checkout completed")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, loanResponse{Loan: toLoanDTO(*decision.Loan)})
}

func (h *CirculationHandler) Return(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	loanID, ok := LoanIDFromContext(r.Context())
	if !ok || strings.TrimSpace(loanID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidLoanID)
		return
	}

	logger := h.log(r.Context(), "Return", "loan_id", loanID)

	decision, err := h.service.ReturnLoan(r.Context(), loanID)
	if err != nil {
		logger.ErrorContext(r.Context(), "return failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if decision.Denied() {
		h.responder.writeDenial(r.Context(), w, decision.Denial)
		return
	}

	resp := returnResponse{Loan: toLoanDTO(*decision.Loan), NotifyUserID: decision.NotifyUserID}
	if decision.Fine != nil {
		fine := toFineDTO(*decision.Fine)
		resp.Fine = &fine
	}

	logger.InfoContext(r.Context(), "return completed", "fine_assessed", decision.Fine != nil)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *CirculationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req circulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Reserve", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Reserve", "user_id", req.UserID, "book_id", req.BookID)

	reservation, err := h.service.Reserve(r.Context(), req.UserID, req.BookID)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation placed")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *CirculationHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	loans, err := h.service.ReportOverdue(r.Context())
	if err != nil {
		h.log(r.Context(), "Overdue").ErrorContext(r.Context(), "overdue report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listLoansResponse{Loans: toLoanDTOs(loans)})
}

func (h *CirculationHandler) UserLoans(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	loans, err := h.service.UserLoans(r.Context(), userID)
	if err != nil {
		h.log(r.Context(), "UserLoans", "user_id", userID).ErrorContext(r.Context(), "loan listing failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listLoansResponse{Loans: toLoanDTOs(loans)})
}

type circulationRequest struct {
	UserID string `json:"user_id"`
	BookID string `json:"book_id"`
}

type loanDTO struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	CopyID     string     `json:"copy_id"`
	CheckoutAt time.Time  `json:"checkout_at"`
	DueAt      time.Time  `json:"due_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
}

type loanResponse struct {
	Loan loanDTO `json:"loan"`
}

type listLoansResponse struct {
	Loans []loanDTO `json:"loans"`
}

type returnResponse struct {
	Loan         loanDTO  `json:"loan"`
	Fine         *fineDTO `json:"fine,omitempty"`
	NotifyUserID string   `json:"notify_user_id,omitempty"`
}

type fineDTO struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

type reservationDTO struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	BookID   string    `json:"book_id"`
	PlacedAt time.Time `json:"placed_at"`
	Status   string    `json:"status"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

func toLoanDTO(loan application.Loan) loanDTO {
	return loanDTO{
		ID:         loan.ID,
		UserID:     loan.UserID,
		CopyID:     loan.CopyID,
		CheckoutAt: loan.CheckoutAt,
		DueAt:      loan.DueAt,
		ReturnedAt: loan.ReturnedAt,
	}
}

func toLoanDTOs(loans []application.Loan) []loanDTO {
	dtos := make([]loanDTO, 0, len(loans))
	for _, loan := range loans {
		dtos = append(dtos, toLoanDTO(loan))
	}
	return dtos
}

func toFineDTO(fine application.Fine) fineDTO {
	return fineDTO{
		ID:          fine.ID,
		UserID:      fine.UserID,
		AmountCents: fine.AmountCents,
		Reason:      fine.Reason,
		CreatedAt:   fine.CreatedAt,
	}
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:       reservation.ID,
		UserID:   reservation.UserID,
		BookID:   reservation.BookID,
		PlacedAt: reservation.PlacedAt,
		Status:   string(reservation.Status),
	}
}

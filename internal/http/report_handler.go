package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/bookhive/internal/application"
)

type reportService interface {
	ReportInventory(ctx context.Context) ([]application.InventoryLine, error)
}

type ReportHandler struct {
	service   reportService
	responder responder
	logger    *slog.Logger
}

func NewReportHandler(service reportService, logger *slog.Logger) *ReportHandler {
	base := defaultLogger(logger)
	return &ReportHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReportHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReportHandler", operation, attrs...)
}

func (h *ReportHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	lines, err := h.service.ReportInventory(r.Context())
	if err != nil {
		h.log(r.Context(), "Inventory").ErrorContext(r.Context(), "inventory report failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, inventoryResponse{Inventory: toInventoryDTOs(lines)})
}

type inventoryLineDTO struct {
	Book            bookDTO `json:"book"`
	TotalCopies     int     `json:"total_copies"`
	AvailableCopies int     `json:"available_copies"`
}

type inventoryResponse struct {
	Inventory []inventoryLineDTO `json:"inventory"`
}

func toInventoryDTOs(lines []application.InventoryLine) []inventoryLineDTO {
	dtos := make([]inventoryLineDTO, 0, len(lines))
	for _, line := range lines {
		dtos = append(dtos, inventoryLineDTO{
			Book:            toBookDTO(line.Book),
			TotalCopies:     line.TotalCopies,
			AvailableCopies: line.AvailableCopies,
		})
	}
	return dtos
}

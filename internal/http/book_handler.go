package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/bookhive/internal/application"
)

type catalogService interface {
	AddBook(ctx context.Context, params application.AddBookParams) (application.Book, error)
	SearchBooks(ctx context.Context, text string) ([]application.Book, error)
}

type BookHandler struct {
	service   catalogService
	responder responder
	logger    *slog.Logger
}

func NewBookHandler(service catalogService, logger *slog.Logger) *BookHandler {
	base := defaultLogger(logger)
	return &BookHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *BookHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookHandler", operation, attrs...)
}

func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode book request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	book, err := h.service.AddBook(r.Context(), application.AddBookParams{
		Title:  req.Title,
		Author: req.Author,
		ISBN:   req.ISBN,
		Tags:   req.Tags,
		Copies: req.Copies,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "book creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("book_id", book.ID).InfoContext(r.Context(), "book catalogued")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookResponse{Book: toBookDTO(book)})
}

// List serves the catalogue, filtered by the optional q parameter.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query().Get("q")

	books, err := h.service.SearchBooks(r.Context(), query)
	if err != nil {
		h.log(r.Context(), "List", "query", query).ErrorContext(r.Context(), "book search failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBooksResponse{Books: toBookDTOs(books)})
}

type createBookRequest struct {
	Title  string   `json:"title"`
	Author string   `json:"author"`
	ISBN   string   `json:"isbn"`
	Tags   []string `json:"tags,omitempty"`
	Copies int      `json:"copies,omitempty"`
}

type bookDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	ISBN      string    `json:"isbn"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type bookResponse struct {
	Book bookDTO `json:"book"`
}

type listBooksResponse struct {
	Books []bookDTO `json:"books"`
}

func toBookDTO(book application.Book) bookDTO {
	return bookDTO{
		ID:        book.ID,
		Title:     book.Title,
		Author:    book.Author,
		ISBN:      book.ISBN,
		Tags:      book.Tags,
		CreatedAt: book.CreatedAt,
	}
}

func toBookDTOs(books []application.Book) []bookDTO {
	dtos := make([]bookDTO, 0, len(books))
	for _, book := range books {
		dtos = append(dtos, toBookDTO(book))
	}
	return dtos
}

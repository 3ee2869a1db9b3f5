package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/bookhive/internal/application"
	"github.com/example/bookhive/internal/persistence"
	"github.com/example/bookhive/internal/testfixtures"
)

func TestStoreSentinelErrors(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	if _, err := store.GetUser(ctx, "usr-missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.UpdateLoan(ctx, testfixtures.NewLoan("usr-1", "cpy-1")); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown loan, got %v", err)
	}

	user := testfixtures.NewUser()
	if _, err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if _, err := store.CreateUser(ctx, user); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Copies require an existing book.
	if _, err := store.CreateCopy(ctx, testfixtures.NewCopy("bk-missing")); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for orphan copy, got %v", err)
	}
}

func TestStoreListsCopiesInCreationOrder(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	book, err := store.CreateBook(ctx, testfixtures.NewBook())
	if err != nil {
		t.Fatalf("CreateBook returned error: %v", err)
	}

	var created []string
	for i := 0; i < 4; i++ {
		c, err := store.CreateCopy(ctx, testfixtures.NewCopy(book.ID))
		if err != nil {
			t.Fatalf("CreateCopy returned error: %v", err)
		}
		created = append(created, c.ID)
	}

	copies, err := store.ListCopiesForBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("ListCopiesForBook returned error: %v", err)
	}
	if len(copies) != len(created) {
		t.Fatalf("expected %d copies, got %d", len(created), len(copies))
	}
	for i, c := range copies {
		if c.ID != created[i] {
			t.Fatalf("expected copy %s at position %d, got %s", created[i], i, c.ID)
		}
	}
}

func TestStoreActiveReservationQueueOrdering(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	base := testfixtures.ReferenceTime()

	book, err := store.CreateBook(ctx, testfixtures.NewBook())
	if err != nil {
		t.Fatalf("CreateBook returned error: %v", err)
	}

	// Insert out of order; the queue must come back sorted by placement
	// time with ID as tie-break.
	second := testfixtures.NewReservation("usr-2", book.ID,
		testfixtures.WithReservationPlacedAt(base.Add(2*time.Minute)))
	first := testfixtures.NewReservation("usr-1", book.ID,
		testfixtures.WithReservationPlacedAt(base.Add(time.Minute)))
	fulfilled := testfixtures.NewReservation("usr-3", book.ID,
		testfixtures.WithReservationPlacedAt(base),
		testfixtures.WithReservationStatus(application.ReservationFulfilled))

	for _, r := range []application.Reservation{second, first, fulfilled} {
		if _, err := store.CreateReservation(ctx, r); err != nil {
			t.Fatalf("CreateReservation returned error: %v", err)
		}
	}

	queue, err := store.ListActiveReservationsForBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("ListActiveReservationsForBook returned error: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("expected 2 active reservations, got %d", len(queue))
	}
	if queue[0].ID != first.ID || queue[1].ID != second.ID {
		t.Fatalf("unexpected queue order: %s, %s", queue[0].ID, queue[1].ID)
	}
}

func TestStoreCloneOnRead(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	book := testfixtures.NewBook(testfixtures.WithBookTags("sci-fi"))
	if _, err := store.CreateBook(ctx, book); err != nil {
		t.Fatalf("CreateBook returned error: %v", err)
	}

	fetched, err := store.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook returned error: %v", err)
	}
	fetched.Tags[0] = "mutated"

	again, err := store.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("GetBook returned error: %v", err)
	}
	if again.Tags[0] != "sci-fi" {
		t.Fatalf("expected stored tags to be isolated from callers, got %v", again.Tags)
	}
}

func TestStoreUnpaidFineFiltering(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	paidAt := testfixtures.ReferenceTime().Add(time.Hour)

	unpaid := testfixtures.NewFine("usr-1", 150)
	paid := testfixtures.NewFine("usr-1", 250, testfixtures.WithFinePaidAt(paidAt))
	other := testfixtures.NewFine("usr-2", 500)

	for _, f := range []application.Fine{unpaid, paid, other} {
		if _, err := store.CreateFine(ctx, f); err != nil {
			t.Fatalf("CreateFine returned error: %v", err)
		}
	}

	fines, err := store.ListUnpaidFinesByUser(ctx, "usr-1")
	if err != nil {
		t.Fatalf("ListUnpaidFinesByUser returned error: %v", err)
	}
	if len(fines) != 1 || fines[0].ID != unpaid.ID {
		t.Fatalf("expected only the unpaid fine, got %+v", fines)
	}
}

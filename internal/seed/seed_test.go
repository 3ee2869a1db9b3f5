package seed

import (
	"context"
	"testing"
	"time"

	"github.com/example/bookhive/internal/library"
	"github.com/example/bookhive/internal/persistence/memory"
	"github.com/example/bookhive/internal/testfixtures"
)

func TestRunLoadsDemoData(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	lib := library.New(memory.NewStore(), library.Options{Now: clock.NowFunc()})
	ctx := context.Background()

	if err := Run(ctx, lib, clock.Now()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	users, err := lib.Users.List(ctx)
	if err != nil {
		t.Fatalf("List users returned error: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}

	books, err := lib.SearchBooks(ctx, "")
	if err != nil {
		t.Fatalf("SearchBooks returned error: %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("expected 3 books, got %d", len(books))
	}

	open, err := lib.Store.ListOpenLoans(ctx)
	if err != nil {
		t.Fatalf("ListOpenLoans returned error: %v", err)
	}
	if len(open) != 3 {
		t.Fatalf("expected 3 open loans, got %d", len(open))
	}

	overdue, err := lib.ReportOverdue(ctx)
	if err != nil {
		t.Fatalf("ReportOverdue returned error: %v", err)
	}
	if len(overdue) != 1 {
		t.Fatalf("expected exactly one overdue loan, got %d", len(overdue))
	}

	lines, err := lib.ReportInventory(ctx)
	if err != nil {
		t.Fatalf("ReportInventory returned error: %v", err)
	}
	total, available := 0, 0
	for _, line := range lines {
		total += line.TotalCopies
		available += line.AvailableCopies
	}
	if total != 6 {
		t.Fatalf("expected 6 copies in total, got %d", total)
	}
	if available != 3 {
		t.Fatalf("expected 3 available copies, got %d", available)
	}
}

func TestRunPlacesReservations(t *testing.T) {
	clock := testfixtures.NewClock(time.Time{})
	lib := library.New(memory.NewStore(), library.Options{Now: clock.NowFunc()})
	ctx := context.Background()

	if err := Run(ctx, lib, clock.Now()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	books, err := lib.SearchBooks(ctx, "Dune")
	if err != nil || len(books) != 1 {
		t.Fatalf("expected to find Dune, got %v err=%v", books, err)
	}

	queue, err := lib.Store.ListActiveReservationsForBook(ctx, books[0].ID)
	if err != nil {
		t.Fatalf("ListActiveReservationsForBook returned error: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("expected one active reservation for Dune, got %d", len(queue))
	}
}

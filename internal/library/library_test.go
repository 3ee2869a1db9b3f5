package library

import (
	"context"
	"testing"
	"time"

	"github.com/example/bookhive/internal/application"
	"github.com/example/bookhive/internal/persistence/memory"
	"github.com/example/bookhive/internal/testfixtures"
)

func newTestLibrary(t *testing.T) (*Library, *testfixtures.Clock) {
	t.Helper()
	clock := testfixtures.NewClock(time.Time{})
	lib := New(memory.NewStore(), Options{Now: clock.NowFunc()})
	return lib, clock
}

func registerMember(t *testing.T, lib *Library, name string) application.User {
	t.Helper()
	user, err := lib.CreateUser(context.Background(), application.RegisterUserParams{
		Name:  name,
		Email: name + "@example.com",
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) returned error: %v", name, err)
	}
	return user
}

func addBook(t *testing.T, lib *Library, title string, copies int) application.Book {
	t.Helper()
	book, err := lib.AddBook(context.Background(), application.AddBookParams{
		Title:  title,
		Author: "Test Author",
		ISBN:   "978-0-00-000000-0",
		Copies: copies,
	})
	if err != nil {
		t.Fatalf("AddBook(%s) returned error: %v", title, err)
	}
	return book
}

func TestCheckedOutCopiesMatchOpenLoans(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	alice := registerMember(t, lib, "alice")
	bob := registerMember(t, lib, "bob")
	book := addBook(t, lib, "Concurrency in Practice", 3)

	for _, user := range []application.User{alice, bob} {
		decision, err := lib.Checkout(ctx, user.ID, book.ID)
		if err != nil {
			t.Fatalf("Checkout returned error: %v", err)
		}
		if decision.Denied() {
			t.Fatalf("expected checkout to succeed, denied with %q", decision.Denial)
		}
	}

	copies, err := lib.Store.ListCopiesForBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("ListCopiesForBook returned error: %v", err)
	}
	checkedOut := 0
	for _, c := range copies {
		if c.Status == application.CopyCheckedOut {
			checkedOut++
		}
	}

	open, err := lib.Store.ListOpenLoans(ctx)
	if err != nil {
		t.Fatalf("ListOpenLoans returned error: %v", err)
	}
	if checkedOut != len(open) {
		t.Fatalf("expected %d checked out copies, got %d", len(open), checkedOut)
	}
	if checkedOut != 2 {
		t.Fatalf("expected 2 checked out copies, got %d", checkedOut)
	}
}

func TestCheckoutDeniedWhenNoCopiesAvailable(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	alice := registerMember(t, lib, "alice")
	bob := registerMember(t, lib, "bob")
	book := addBook(t, lib, "Single Copy", 1)

	if decision, err := lib.Checkout(ctx, alice.ID, book.ID); err != nil || decision.Denied() {
		t.Fatalf("expected first checkout to succeed, denial=%q err=%v", decision.Denial, err)
	}

	decision, err := lib.Checkout(ctx, bob.ID, book.ID)
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if !decision.Denied() || decision.Denial != application.DenialNoCopiesAvailable {
		t.Fatalf("expected no_copies_available denial, got %+v", decision)
	}
}

func TestCheckoutDeniedWhenAllCopiesOutRegardlessOfQueue(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	alice := registerMember(t, lib, "alice")
	bob := registerMember(t, lib, "bob")
	book := addBook(t, lib, "Popular Title", 1)

	if decision, err := lib.Checkout(ctx, alice.ID, book.ID); err != nil || decision.Denied() {
		t.Fatalf("expected setup checkout to succeed, denial=%q err=%v", decision.Denial, err)
	}
	if _, err := lib.Reserve(ctx, bob.ID, book.ID); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	// Bob is first in the queue yet still cannot check out while every
	// copy is held by an open loan.
	decision, err := lib.Checkout(ctx, bob.ID, book.ID)
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if decision.Denial != application.DenialNoCopiesAvailable {
		t.Fatalf("expected no_copies_available denial, got %+v", decision)
	}
}

func TestReservationQueuePriority(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	userA := registerMember(t, lib, "user-a")
	userB := registerMember(t, lib, "user-b")
	book := addBook(t, lib, "X", 1)

	if _, err := lib.Reserve(ctx, userA.ID, book.ID); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	decision, err := lib.Checkout(ctx, userB.ID, book.ID)
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if decision.Denial != application.DenialReservedByAnotherUser {
		t.Fatalf("expected reserved_by_another_user denial, got %+v", decision)
	}

	decision, err = lib.Checkout(ctx, userA.ID, book.ID)
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if decision.Denied() {
		t.Fatalf("expected checkout by reservation holder to succeed, denied with %q", decision.Denial)
	}

	reservations, err := lib.Store.ListReservationsByUser(ctx, userA.ID)
	if err != nil {
		t.Fatalf("ListReservationsByUser returned error: %v", err)
	}
	if len(reservations) != 1 || reservations[0].Status != application.ReservationFulfilled {
		t.Fatalf("expected a single fulfilled reservation, got %+v", reservations)
	}
}

func TestOverdueReturnAssessesFine(t *testing.T) {
	lib, clock := newTestLibrary(t)
	ctx := context.Background()

	alice := registerMember(t, lib, "alice")
	book := addBook(t, lib, "Slow Read", 1)

	decision, err := lib.Checkout(ctx, alice.ID, book.ID)
	if err != nil || decision.Denied() {
		t.Fatalf("expected checkout to succeed, denial=%q err=%v", decision.Denial, err)
	}

	// Three days past the fourteen day loan period.
	clock.Advance(17 * 24 * time.Hour)

	result, err := lib.ReturnLoan(ctx, decision.Loan.ID)
	if err != nil {
		t.Fatalf("ReturnLoan returned error: %v", err)
	}
	if result.Denied() {
		t.Fatalf("expected return to succeed, denied with %q", result.Denial)
	}
	if result.Fine == nil {
		t.Fatalf("expected a fine for the overdue return")
	}
	if result.Fine.AmountCents != 150 {
		t.Fatalf("expected fine of 150 cents, got %d", result.Fine.AmountCents)
	}
}

func TestReturnOnDueDateAssessesNoFine(t *testing.T) {
	lib, clock := newTestLibrary(t)
	ctx := context.Background()

	alice := registerMember(t, lib, "alice")
	book := addBook(t, lib, "On Time", 1)

	decision, err := lib.Checkout(ctx, alice.ID, book.ID)
	if err != nil || decision.Denied() {
		t.Fatalf("expected checkout to succeed, denial=%q err=%v", decision.Denial, err)
	}

	clock.Set(decision.Loan.DueAt)

	result, err := lib.ReturnLoan(ctx, decision.Loan.ID)
	if err != nil {
		t.Fatalf("ReturnLoan returned error: %v", err)
	}
	if result.Denied() {
		t.Fatalf("expected return to succeed, denied with %q", result.Denial)
	}
	if result.Fine != nil {
		t.Fatalf("expected no fine on the due date, got %+v", result.Fine)
	}
}

func TestDuplicateReturnDenied(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	alice := registerMember(t, lib, "alice")
	book := addBook(t, lib, "Once Only", 1)

	decision, err := lib.Checkout(ctx, alice.ID, book.ID)
	if err != nil || decision.Denied() {
		t.Fatalf("expected checkout to succeed, denial=%q err=%v", decision.Denial, err)
	}
	if result, err := lib.ReturnLoan(ctx, decision.Loan.ID); err != nil || result.Denied() {
		t.Fatalf("expected first return to succeed, denial=%q err=%v", result.Denial, err)
	}

	result, err := lib.ReturnLoan(ctx, decision.Loan.ID)
	if err != nil {
		t.Fatalf("ReturnLoan returned error: %v", err)
	}
	if result.Denial != application.DenialInvalidLoan {
		t.Fatalf("expected invalid_loan denial, got %+v", result)
	}

	if result, err := lib.ReturnLoan(ctx, "loan_missing"); err != nil || result.Denial != application.DenialInvalidLoan {
		t.Fatalf("expected invalid_loan denial for unknown loan, got %+v err=%v", result, err)
	}
}

func TestReturnNotifiesNextInQueue(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	alice := registerMember(t, lib, "alice")
	bob := registerMember(t, lib, "bob")
	book := addBook(t, lib, "Waiting List", 1)

	decision, err := lib.Checkout(ctx, alice.ID, book.ID)
	if err != nil || decision.Denied() {
		t.Fatalf("expected checkout to succeed, denial=%q err=%v", decision.Denial, err)
	}
	if _, err := lib.Reserve(ctx, bob.ID, book.ID); err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}

	result, err := lib.ReturnLoan(ctx, decision.Loan.ID)
	if err != nil || result.Denied() {
		t.Fatalf("expected return to succeed, denial=%q err=%v", result.Denial, err)
	}
	if result.NotifyUserID != bob.ID {
		t.Fatalf("expected notification for %s, got %q", bob.ID, result.NotifyUserID)
	}

	// The notice is advisory; Bob's reservation stays active.
	reservations, err := lib.Store.ListActiveReservationsForBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("ListActiveReservationsForBook returned error: %v", err)
	}
	if len(reservations) != 1 || reservations[0].UserID != bob.ID {
		t.Fatalf("expected Bob's reservation to remain active, got %+v", reservations)
	}
}

func TestPayAllFinesIsIdempotent(t *testing.T) {
	lib, clock := newTestLibrary(t)
	ctx := context.Background()

	alice := registerMember(t, lib, "alice")
	book := addBook(t, lib, "Expensive Habit", 1)

	decision, err := lib.Checkout(ctx, alice.ID, book.ID)
	if err != nil || decision.Denied() {
		t.Fatalf("expected checkout to succeed, denial=%q err=%v", decision.Denial, err)
	}
	clock.Advance(18 * 24 * time.Hour)
	if result, err := lib.ReturnLoan(ctx, decision.Loan.ID); err != nil || result.Fine == nil {
		t.Fatalf("expected overdue return with fine, got %+v err=%v", result, err)
	}

	paid, err := lib.PayAllFines(ctx, alice.ID)
	if err != nil {
		t.Fatalf("PayAllFines returned error: %v", err)
	}
	if paid != 2.00 {
		t.Fatalf("expected 2.00 paid, got %v", paid)
	}

	paid, err = lib.PayAllFines(ctx, alice.ID)
	if err != nil {
		t.Fatalf("second PayAllFines returned error: %v", err)
	}
	if paid != 0 {
		t.Fatalf("expected 0 on second settlement, got %v", paid)
	}
}

func TestInactiveUserCannotCheckout(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	alice := registerMember(t, lib, "alice")
	book := addBook(t, lib, "Members Only", 1)

	alice.Active = false
	if _, err := lib.Store.UpdateUser(ctx, alice); err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}

	decision, err := lib.Checkout(ctx, alice.ID, book.ID)
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if decision.Denial != application.DenialUserNotEligible {
		t.Fatalf("expected user_not_eligible denial, got %+v", decision)
	}

	if decision, err := lib.Checkout(ctx, "usr_missing", book.ID); err != nil || decision.Denial != application.DenialUserNotEligible {
		t.Fatalf("expected user_not_eligible denial for unknown user, got %+v err=%v", decision, err)
	}
}

func TestBlockIfUnpaidFinesDeactivatesOverThreshold(t *testing.T) {
	lib, clock := newTestLibrary(t)
	ctx := context.Background()

	alice := registerMember(t, lib, "alice")
	book := addBook(t, lib, "Very Late", 1)

	decision, err := lib.Checkout(ctx, alice.ID, book.ID)
	if err != nil || decision.Denied() {
		t.Fatalf("expected checkout to succeed, denial=%q err=%v", decision.Denial, err)
	}

	// 25 days late at 50 cents/day crosses the 10 dollar threshold.
	clock.Advance(39 * 24 * time.Hour)
	if result, err := lib.ReturnLoan(ctx, decision.Loan.ID); err != nil || result.Fine == nil {
		t.Fatalf("expected overdue return with fine, got %+v err=%v", result, err)
	}

	blocked, err := lib.BlockIfUnpaidFines(ctx, alice.ID)
	if err != nil {
		t.Fatalf("BlockIfUnpaidFines returned error: %v", err)
	}
	if !blocked {
		t.Fatalf("expected user to be blocked")
	}

	updated, err := lib.Users.Get(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if updated.Active {
		t.Fatalf("expected blocked user to be inactive")
	}
}

func TestReportOverdueAndInventory(t *testing.T) {
	lib, clock := newTestLibrary(t)
	ctx := context.Background()

	alice := registerMember(t, lib, "alice")
	dune := addBook(t, lib, "Dune", 2)
	other := addBook(t, lib, "Untouched", 1)

	decision, err := lib.Checkout(ctx, alice.ID, dune.ID)
	if err != nil || decision.Denied() {
		t.Fatalf("expected checkout to succeed, denial=%q err=%v", decision.Denial, err)
	}

	overdue, err := lib.ReportOverdue(ctx)
	if err != nil {
		t.Fatalf("ReportOverdue returned error: %v", err)
	}
	if len(overdue) != 0 {
		t.Fatalf("expected no overdue loans yet, got %d", len(overdue))
	}

	clock.Advance(15 * 24 * time.Hour)

	overdue, err = lib.ReportOverdue(ctx)
	if err != nil {
		t.Fatalf("ReportOverdue returned error: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != decision.Loan.ID {
		t.Fatalf("expected the open loan to be overdue, got %+v", overdue)
	}

	lines, err := lib.ReportInventory(ctx)
	if err != nil {
		t.Fatalf("ReportInventory returned error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 inventory lines, got %d", len(lines))
	}
	byID := map[string]application.InventoryLine{}
	for _, line := range lines {
		byID[line.Book.ID] = line
	}
	if line := byID[dune.ID]; line.TotalCopies != 2 || line.AvailableCopies != 1 {
		t.Fatalf("unexpected inventory for %s: %+v", dune.Title, line)
	}
	if line := byID[other.ID]; line.TotalCopies != 1 || line.AvailableCopies != 1 {
		t.Fatalf("unexpected inventory for %s: %+v", other.Title, line)
	}
}

func TestSearchBooksMatchesTagsCaseInsensitively(t *testing.T) {
	lib, _ := newTestLibrary(t)
	ctx := context.Background()

	scifi, err := lib.AddBook(ctx, application.AddBookParams{
		Title:  "Dune",
		Author: "Frank Herbert",
		ISBN:   "978-0-441-17271-9",
		Tags:   []string{"sci-fi", "classic"},
		Copies: 1,
	})
	if err != nil {
		t.Fatalf("AddBook returned error: %v", err)
	}
	addBook(t, lib, "Clean Code", 1)

	results, err := lib.SearchBooks(ctx, "SCI-FI")
	if err != nil {
		t.Fatalf("SearchBooks returned error: %v", err)
	}
	if len(results) != 1 || results[0].ID != scifi.ID {
		t.Fatalf("expected tag match for Dune, got %+v", results)
	}
}

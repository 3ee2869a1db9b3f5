// Package seed loads a small demo dataset so a fresh server has browsable
// state.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/example/bookhive/internal/application"
	"github.com/example/bookhive/internal/library"
)

// Run populates the library with demo users, books, open loans, and
// reservations. One of Alice's loans is backdated three days overdue so the
// overdue report and fine path have material to work with.
func Run(ctx context.Context, lib *library.Library, now time.Time) error {
	alice, err := lib.CreateUser(ctx, application.RegisterUserParams{
		Name:  "Alice Reader",
		Email: "alice@example.com",
	})
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	bob, err := lib.CreateUser(ctx, application.RegisterUserParams{
		Name:  "Bob Librarian",
		Email: "bob@example.com",
		Role:  application.RoleLibrarian,
	})
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	admin, err := lib.CreateUser(ctx, application.RegisterUserParams{
		Name:  "Ava Admin",
		Email: "admin@example.com",
		Role:  application.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	dune, err := lib.AddBook(ctx, application.AddBookParams{
		Title:  "Dune",
		Author: "Frank Herbert",
		ISBN:   "9780441172719",
		Tags:   []string{"sci-fi", "classic"},
		Copies: 2,
	})
	if err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	hp1, err := lib.AddBook(ctx, application.AddBookParams{
		Title:  "Harry Potter and the Sorcerer's Stone",
		Author: "J.K. Rowling",
		ISBN:   "9780590353427",
		Tags:   []string{"fantasy"},
		Copies: 1,
	})
	if err != nil {
		return fmt.Errorf("seed books: %w", err)
	}
	cleanCode, err := lib.AddBook(ctx, application.AddBookParams{
		Title:  "Clean Code",
		Author: "Robert C. Martin",
		ISBN:   "9780132350884",
		Tags:   []string{"software", "craft"},
		Copies: 3,
	})
	if err != nil {
		return fmt.Errorf("seed books: %w", err)
	}

	duneLoan, err := checkout(ctx, lib, alice.ID, dune.ID)
	if err != nil {
		return err
	}
	if _, err := checkout(ctx, lib, alice.ID, cleanCode.ID); err != nil {
		return err
	}
	if _, err := checkout(ctx, lib, bob.ID, hp1.ID); err != nil {
		return err
	}

	if _, err := lib.Reserve(ctx, alice.ID, hp1.ID); err != nil {
		return fmt.Errorf("seed reservations: %w", err)
	}
	if _, err := lib.Reserve(ctx, admin.ID, dune.ID); err != nil {
		return fmt.Errorf("seed reservations: %w", err)
	}

	// Backdate Alice's Dune loan so it is already three days overdue.
	duneLoan.DueAt = now.AddDate(0, 0, -3)
	if _, err := lib.Store.UpdateLoan(ctx, duneLoan); err != nil {
		return fmt.Errorf("seed backdate loan: %w", err)
	}

	return nil
}

func checkout(ctx context.Context, lib *library.Library, userID, bookID string) (application.Loan, error) {
	decision, err := lib.Checkout(ctx, userID, bookID)
	if err != nil {
		return application.Loan{}, fmt.Errorf("seed checkout: %w", err)
	}
	if decision.Denied() {
		return application.Loan{}, fmt.Errorf("seed checkout denied: %s", decision.Denial)
	}
	return *decision.Loan, nil
}

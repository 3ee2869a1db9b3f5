package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/bookhive/internal/application"
	"github.com/example/bookhive/internal/persistence/memory"
	"github.com/example/bookhive/internal/testfixtures"
)

type fixedFineTotals struct {
	cents int64
}

func (f fixedFineTotals) TotalUnpaid(ctx context.Context, userID string) (int64, error) {
	return f.cents, nil
}

func newUserService(store *memory.Store, totals application.FineTotals) *application.UserService {
	ids := testfixtures.NewIDGenerator("usr")
	clock := testfixtures.NewClock(time.Time{})
	return application.NewUserService(store, totals, ids.NextFunc(), clock.NowFunc())
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	t.Run("persists an active member by default", func(t *testing.T) {
		t.Parallel()
		store := memory.NewStore()
		service := newUserService(store, fixedFineTotals{})

		user, err := service.Register(context.Background(), application.RegisterUserParams{
			Name:  "  Alice Reader ",
			Email: " Alice@Example.com ",
		})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if user.Name != "Alice Reader" {
			t.Fatalf("expected trimmed name, got %q", user.Name)
		}
		if user.Email != "alice@example.com" {
			t.Fatalf("expected lowercased email, got %q", user.Email)
		}
		if user.Role != application.RoleMember {
			t.Fatalf("expected member role, got %q", user.Role)
		}
		if !user.Active {
			t.Fatalf("expected new user to be active")
		}
	})

	t.Run("validates name, email, and role", func(t *testing.T) {
		t.Parallel()
		service := newUserService(memory.NewStore(), fixedFineTotals{})

		_, err := service.Register(context.Background(), application.RegisterUserParams{
			Name:  "",
			Email: "not-an-email",
			Role:  application.Role("royalty"),
		})

		var vErr *application.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		for _, field := range []string{"name", "email", "role"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected error for field %q, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("accepts an explicit librarian role", func(t *testing.T) {
		t.Parallel()
		service := newUserService(memory.NewStore(), fixedFineTotals{})

		user, err := service.Register(context.Background(), application.RegisterUserParams{
			Name:  "Bob Librarian",
			Email: "bob@example.com",
			Role:  application.RoleLibrarian,
		})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
		if user.Role != application.RoleLibrarian {
			t.Fatalf("expected librarian role, got %q", user.Role)
		}
	})
}

func TestUserService_Get(t *testing.T) {
	t.Parallel()

	t.Run("maps missing users to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		service := newUserService(memory.NewStore(), fixedFineTotals{})

		_, err := service.Get(context.Background(), "usr-missing")
		if !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserService_BlockIfUnpaidFines(t *testing.T) {
	t.Parallel()

	t.Run("leaves the account active at the threshold", func(t *testing.T) {
		t.Parallel()
		store := memory.NewStore()
		service := newUserService(store, fixedFineTotals{cents: 1000})

		user, err := service.Register(context.Background(), application.RegisterUserParams{
			Name: "Alice", Email: "alice@example.com",
		})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}

		blocked, err := service.BlockIfUnpaidFines(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("BlockIfUnpaidFines returned error: %v", err)
		}
		if blocked {
			t.Fatalf("expected no block at exactly the threshold")
		}
	})

	t.Run("deactivates the account over the threshold", func(t *testing.T) {
		t.Parallel()
		store := memory.NewStore()
		service := newUserService(store, fixedFineTotals{cents: 1050})

		user, err := service.Register(context.Background(), application.RegisterUserParams{
			Name: "Alice", Email: "alice@example.com",
		})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}

		blocked, err := service.BlockIfUnpaidFines(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("BlockIfUnpaidFines returned error: %v", err)
		}
		if !blocked {
			t.Fatalf("expected block over the threshold")
		}

		updated, err := service.Get(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("Get returned error: %v", err)
		}
		if updated.Active {
			t.Fatalf("expected blocked user to be inactive")
		}

		// A second invocation reports no change.
		blocked, err = service.BlockIfUnpaidFines(context.Background(), user.ID)
		if err != nil {
			t.Fatalf("second BlockIfUnpaidFines returned error: %v", err)
		}
		if blocked {
			t.Fatalf("expected no block on an already inactive account")
		}
	})

	t.Run("maps missing users to ErrNotFound", func(t *testing.T) {
		t.Parallel()
		service := newUserService(memory.NewStore(), fixedFineTotals{cents: 5000})

		_, err := service.BlockIfUnpaidFines(context.Background(), "usr-missing")
		if !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

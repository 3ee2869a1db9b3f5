package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/example/bookhive/internal/persistence"
)

// unpaidBlockThresholdCents is the unpaid-fine balance above which an account
// is deactivated by the blocking policy.
const unpaidBlockThresholdCents int64 = 1000

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id string) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// FineTotals exposes the unpaid balance lookup used by the blocking policy.
type FineTotals interface {
	TotalUnpaid(ctx context.Context, userID string) (int64, error)
}

// UserService orchestrates validation and persistence for user accounts.
type UserService struct {
	users       UserRepository
	fines       FineTotals
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, fines FineTotals, idGenerator func() string, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, fines, idGenerator, now, nil)
}

// NewUserServiceWithLogger wires dependencies including an explicit logger.
func NewUserServiceWithLogger(users UserRepository, fines FineTotals, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:       users,
		fines:       fines,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *UserService) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if s == nil {
		return slog.Default()
	}
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Register validates input and persists a new active user. An empty role
// defaults to member.
func (s *UserService) Register(ctx context.Context, params RegisterUserParams) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}

	normalized := normalizeRegisterInput(params)
	vErr := validateRegisterInput(normalized)
	if vErr.HasErrors() {
		return User{}, vErr
	}

	user := User{
		ID:        s.idGenerator(),
		Name:      normalized.Name,
		Email:     normalized.Email,
		Role:      normalized.Role,
		Active:    true,
		CreatedAt: s.now(),
	}

	if s.users == nil {
		return user, nil
	}

	persisted, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			return User{}, ErrAlreadyExists
		}
		return User{}, err
	}

	s.log(ctx, "Register", "user_id", persisted.ID).InfoContext(ctx, "user registered")
	return persisted, nil
}

// Get resolves a user by identifier.
func (s *UserService) Get(ctx context.Context, id string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// List returns every registered user.
func (s *UserService) List(ctx context.Context) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return nil, nil
	}
	return s.users.ListUsers(ctx)
}

// BlockIfUnpaidFines deactivates the user when their unpaid fines exceed the
// blocking threshold. It reports whether the account was deactivated.
func (s *UserService) BlockIfUnpaidFines(ctx context.Context, userID string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("UserService is nil")
	}
	if s.users == nil || s.fines == nil {
		return false, fmt.Errorf("user service dependencies not configured")
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	cents, err := s.fines.TotalUnpaid(ctx, userID)
	if err != nil {
		return false, err
	}
	if cents <= unpaidBlockThresholdCents || !user.Active {
		return false, nil
	}

	user.Active = false
	if _, err := s.users.UpdateUser(ctx, user); err != nil {
		return false, err
	}

	s.log(ctx, "BlockIfUnpaidFines", "user_id", userID, "unpaid_cents", cents).
		WarnContext(ctx, "user deactivated over unpaid fines")
	return true, nil
}

func normalizeRegisterInput(params RegisterUserParams) RegisterUserParams {
	role := params.Role
	if role == "" {
		role = RoleMember
	}
	return RegisterUserParams{
		Name:  strings.TrimSpace(params.Name),
		Email: strings.ToLower(strings.TrimSpace(params.Email)),
		Role:  role,
	}
}

func validateRegisterInput(params RegisterUserParams) *ValidationError {
	vErr := &ValidationError{}

	if params.Name == "" {
		vErr.add("name", "name is required")
	}

	if params.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(params.Email); err != nil {
		vErr.add("email", "email is invalid")
	}

	if !params.Role.Valid() {
		vErr.add("role", "role is invalid")
	}

	return vErr
}

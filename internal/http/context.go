package http

import "context"

type contextKey string

const (
	userIDContextKey contextKey = "user_id"
	loanIDContextKey contextKey = "loan_id"
)

// ContextWithUserID injects the user identifier resolved from the request path.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts a user identifier previously associated with the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}

// ContextWithLoanID injects the loan identifier resolved from the request path.
func ContextWithLoanID(ctx context.Context, loanID string) context.Context {
	return context.WithValue(ctx, loanIDContextKey, loanID)
}

// LoanIDFromContext extracts a loan identifier previously associated with the context.
func LoanIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(loanIDContextKey).(string)
	return id, ok
}

// Package http provides HTTP handlers and middleware for the circulation API.
//
// The router exposes the following endpoints:
//   - POST /users, GET /users, GET /users/{id}: registration and lookup
//     exchanging the `userDTO` payload defined in user_handler.go.
//   - POST /users/{id}/fines/payments: settles every unpaid fine for the user
//     and responds with the amount paid in major currency units.
//   - GET /users/{id}/loans: the user's loan history, open and closed.
//   - POST /books, GET /books?q=: cataloguing and case-insensitive substring
//     search over title, author, ISBN, and tags.
//   - POST /loans: checkout. Responds 201 with the loan, or 409 with a stable
//     `denial` code when the request is refused.
//   - POST /loans/{id}/return: closes the loan. Responds 200 with the loan,
//     any assessed fine, and an advisory `notify_user_id` naming the first
//     user in the book's reservation queue; 409 when the loan is unknown or
//     already returned.
//   - GET /loans/overdue: every open loan past its due date.
//   - POST /reservations: appends the user to the book's FIFO queue.
//   - GET /reports/inventory: per-book total and available copy counts.
//   - GET /metrics: Prometheus exposition. GET /healthz: liveness probe.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http

// internal/auth/context.go
//
// Request-scoped admin identity.
//
// Usage
// -----
//     // Attach the admin after the session cookie verifies.
//     ctx = auth.WithAdmin(ctx, auth.Admin{ID: 1, Username: "admin"})
//
//     // Downstream code retrieves it.
//     a, ok := auth.AdminFrom(ctx)   // {1 admin}, true
//
// Notes
// -----
// • Only LoadSession writes this value; handlers treat it as read-only.

package auth

import "context"

// Admin identifies the signed-in back-office user.
type Admin struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// adminKey is unexported to avoid context-key collisions.
type adminKey struct{}

// WithAdmin returns a new context carrying a.
func WithAdmin(ctx context.Context, a Admin) context.Context {
	return context.WithValue(ctx, adminKey{}, a)
}

// AdminFrom extracts the admin from ctx.  It returns (Admin{}, false) when
// the request is anonymous.
func AdminFrom(ctx context.Context) (Admin, bool) {
	a, ok := ctx.Value(adminKey{}).(Admin)
	return a, ok
}

// AdminID is shorthand for the activity log's nullable admin column.
func AdminID(ctx context.Context) *int64 {
	a, ok := AdminFrom(ctx)
	if !ok {
		return nil
	}
	id := a.ID
	return &id
}

package ports

import "context"

// CallbackEvent is queued for delivery to a tenant's callback URL (C8).
type CallbackEvent struct {
	TenantID    string
	CallbackURL string
	// Auth is the tenant's configured callback_auth, sent verbatim as the
	// outbound request's Authorization header. Empty means unauthenticated.
	Auth    string
	Payload map[string]any
}

// CallbackDispatcher delivers best-effort notifications to tenant callback
// URLs with bounded retry and exponential backoff. An event may be dropped:
// Enqueue fails when the queue is full, and delivery stops after the last
// allowed attempt.
type CallbackDispatcher interface {
	Enqueue(ctx context.Context, event CallbackEvent) error
	Start(ctx context.Context)
	Stop()
}

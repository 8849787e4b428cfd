package queue

import "context"

// Client enqueues evaluation jobs for asynchronous processing.
// Implementations must be safe for concurrent use; the HTTP handlers
// share a single client across requests.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

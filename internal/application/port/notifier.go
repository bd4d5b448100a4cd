package port

import "context"

// Notifier delivers a rendered alert message. Best effort: a failure is
// terminal for that one message and never propagates into the tick pipeline.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

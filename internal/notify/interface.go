package notify

import "context"

// Sender delivers a notification message to the user.
type Sender interface {
	Send(ctx context.Context, message string) error
}

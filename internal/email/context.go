package email

import (
	"context"
	"time"
)

// NewSendContext detaches cancellation from the parent so handler- or
// job-scoped contexts don't abort async sends, while still bounding the send.
func NewSendContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	parent = context.WithoutCancel(parent)
	return context.WithTimeout(parent, timeout)
}

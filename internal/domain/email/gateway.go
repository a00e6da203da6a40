// Package email specifies the outbound gateway contract the delivery
// worker calls. The gateway's own HTTP transport is an external
// collaborator; only this interface and the RetryableError type are part
// of the core. There is no separate fatal error type: the delivery worker
// reschedules a task on any Send error.
package email

import "context"

// Message is the content handed to the gateway for one recipient.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Gateway sends a single email synchronously.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
}

// RetryableError wraps a gateway failure the delivery worker should treat
// as transient (non-2xx response, timeout): the task stays queued and is
// retried with backoff.
type RetryableError struct {
	Cause error
}

func (e *RetryableError) Error() string {
	return "email gateway: retryable failure: " + e.Cause.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Cause
}

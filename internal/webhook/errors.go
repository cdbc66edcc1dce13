package webhook

import (
	"errors"
	"fmt"
)

// Rejection reasons. A RejectionError unwraps to exactly one of these.
var (
	ErrMissingNotifier   = errors.New("missing notified method")
	ErrUnknownFeed       = errors.New("unknown feed")
	ErrFeedLookup        = errors.New("feed lookup failed")
	ErrMissingSignature  = errors.New("missing signature")
	ErrUnknownMechanism  = errors.New("unknown signature mechanism")
	ErrUnreadableBody    = errors.New("unreadable body")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrSignatureMismatch = errors.New("non-matching signature")
)

// RejectionError explains why a notification was ignored.
type RejectionError struct {
	Reason  error
	FeedID  string
	Message string
	Err     error
}

func (e *RejectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RejectionError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Reason, e.Err}
	}
	return []error{e.Reason}
}

func reject(reason error, feedID, format string, args ...any) *RejectionError {
	return &RejectionError{
		Reason:  reason,
		FeedID:  feedID,
		Message: fmt.Sprintf(format, args...),
	}
}

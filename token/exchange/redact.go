package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// redactTransportError keeps the cause of a transport failure without echoing anything
// the oauth2 package may have appended from a response body.
func redactTransportError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return context.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return context.Canceled
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	msg := err.Error()
	if i := strings.Index(msg, "\n"); i >= 0 {
		msg = msg[:i]
	}
	return errors.New(msg)
}

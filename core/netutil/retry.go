package netutil

import (
	"errors"
	"net"
	"time"
)

// ShouldRetry reports whether err looks like a transient transport failure:
// a timeout anywhere in the chain or a failed dial. HTTP status errors are
// never retried here.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return true
	}
	var op *net.OpError
	if errors.As(err, &op) && op.Op == "dial" {
		return true
	}
	return errors.Is(err, ErrTemporary)
}

// ErrTemporary can be wrapped by callers to mark a failure as retryable.
var ErrTemporary = errors.New("netutil: temporary failure")

// Backoff returns a linear delay for the given 1-based attempt.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(attempt)
}

// Package platform defines the per-platform search/deliver contract and its
// concrete implementations for Boss直聘, 猎聘 and 智联招聘. Each operation
// performs exactly one externally visible network exchange; retries are the
// controller's responsibility.
package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yunhdeng/job-bot/internal/model"
)

// Outcome is the platform's answer to a delivery request.
type Outcome int

const (
	// Delivered means the application was accepted by the platform.
	Delivered Outcome = iota
	// AlreadyDelivered means an application for this posting already exists.
	AlreadyDelivered
	// Rejected means the platform refused the application.
	Rejected
)

// DeliveryResult carries the outcome and, for rejections, the platform's
// stated reason.
type DeliveryResult struct {
	Outcome Outcome
	Reason  string
}

// Adapter is the capability contract a controller is written against. One
// concrete value exists per platform; they differ only in wire details.
type Adapter interface {
	// Name returns the platform identifier, e.g. "boss".
	Name() string
	// Search fetches one page of postings for a (keyword, city) pair.
	// An empty result with a nil error is the pagination terminator.
	Search(ctx context.Context, keyword, city string, page int) ([]model.Posting, error)
	// Deliver submits one application with the given greeting text.
	Deliver(ctx context.Context, p model.Posting, greeting string) (DeliveryResult, error)
}

// ErrSessionExpired means the platform no longer accepts the session token.
// It is terminal for the remainder of that platform's run.
var ErrSessionExpired = errors.New("platform session expired")

// sessionInvalid reports whether an envelope message indicates the session
// is no longer accepted. The platforms signal this in-band with an HTTP 200
// and a login hint in the message.
func sessionInvalid(message string) bool {
	return strings.Contains(strings.ToLower(message), "cookie") || strings.Contains(message, "登录")
}

// NetworkError is a transient transport failure, retried with backoff.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError is a malformed platform response. It is logged and treated like
// an empty-but-not-exhausted page.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("%s: parse error: %v", e.Op, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// IsRetryable reports whether an error is worth retrying. Only transient
// network failures are; session expiry and malformed responses are not.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

package token

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
)

// Outcome classifies a single fetch attempt.
type Outcome int

const (
	Success Outcome = iota
	RetryableFailure
	FatalFailure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case RetryableFailure:
		return "retryable"
	case FatalFailure:
		return "fatal"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Result is the classified result of one fetch. Token is set only on Success;
// Err is set on both failure outcomes.
type Result struct {
	Outcome Outcome
	Token   string
	Err     error
}

// Classify maps the return values of Fetcher.FetchToken to a Result.
func Classify(token string, err error) Result {
	if err == nil {
		if token == "" {
			return Result{Outcome: RetryableFailure, Err: ErrEmptyToken}
		}
		return Result{Outcome: Success, Token: token}
	}
	if retryable(err) {
		return Result{Outcome: RetryableFailure, Err: err}
	}
	return Result{Outcome: FatalFailure, Err: err}
}

func retryable(err error) bool {
	var authErr *AuthenticatorError
	if errors.As(err, &authErr) {
		return authErr.Transient
	}

	switch {
	case errors.Is(err, ErrEmptyToken),
		errors.Is(err, ErrCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, ErrIO),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

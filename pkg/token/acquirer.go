package token

import (
	"context"
	"time"

	"github.com/systmms/dsauth/internal/logging"
	"github.com/systmms/dsauth/internal/metrics"
)

const (
	// DefaultMaxAttempts is the number of fetches before giving up.
	DefaultMaxAttempts = 3

	// DefaultDelay is the pause between two fetches.
	DefaultDelay = 200 * time.Millisecond
)

// Fetcher is the blocking token source. An empty token with a nil error counts
// as a retryable failure.
type Fetcher interface {
	FetchToken(ctx context.Context, accountID, tokenType string, notifyOnFailure bool) (string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, accountID, tokenType string, notifyOnFailure bool) (string, error)

// FetchToken calls f.
func (f FetcherFunc) FetchToken(ctx context.Context, accountID, tokenType string, notifyOnFailure bool) (string, error) {
	return f(ctx, accountID, tokenType, notifyOnFailure)
}

// Sleeper waits between attempts.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(d time.Duration)

// Sleep calls f.
func (f SleeperFunc) Sleep(d time.Duration) { f(d) }

// State is a step of the acquisition state machine.
type State int

const (
	Attempting State = iota
	Retrying
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Attempting:
		return "attempting"
	case Retrying:
		return "retrying"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Acquirer fetches tokens with a bounded number of retries.
type Acquirer struct {
	fetcher     Fetcher
	maxAttempts int
	delay       time.Duration
	sleeper     Sleeper
	logger      *logging.Logger
	metrics     *metrics.Recorder
	observer    func(State)
}

// Option configures an Acquirer.
type Option func(*Acquirer)

// WithMaxAttempts sets the attempt limit. Values below 1 are treated as 1.
func WithMaxAttempts(n int) Option {
	return func(a *Acquirer) {
		if n < 1 {
			n = 1
		}
		a.maxAttempts = n
	}
}

// WithDelay sets the pause between attempts.
func WithDelay(d time.Duration) Option {
	return func(a *Acquirer) {
		if d < 0 {
			d = 0
		}
		a.delay = d
	}
}

// WithSleeper replaces time.Sleep, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(a *Acquirer) {
		a.sleeper = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Acquirer) {
		a.logger = l
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option {
	return func(a *Acquirer) {
		a.metrics = m
	}
}

// WithObserver registers a callback invoked on every state transition.
func WithObserver(fn func(State)) Option {
	return func(a *Acquirer) {
		a.observer = fn
	}
}

// NewAcquirer returns an Acquirer that fetches tokens from f.
func NewAcquirer(f Fetcher, opts ...Option) *Acquirer {
	a := &Acquirer{
		fetcher:     f,
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultDelay,
		sleeper:     SleeperFunc(time.Sleep),
		logger:      logging.Discard(),
		metrics:     metrics.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxAttempts returns the configured attempt limit.
func (a *Acquirer) MaxAttempts() int { return a.maxAttempts }

// Delay returns the configured pause between attempts.
func (a *Acquirer) Delay() time.Duration { return a.delay }

// Acquire fetches a token for accountID. It blocks, see the package
// documentation.
func (a *Acquirer) Acquire(ctx context.Context, accountID, tokenType string) (string, error) {
	start := time.Now()
	remaining := a.maxAttempts
	attempt := 0
	state := Attempting
	a.enter(state)

	var last Result
	for {
		switch state {
		case Attempting:
			attempt++
			last = Classify(a.fetcher.FetchToken(ctx, accountID, tokenType, true))
			a.metrics.RecordFetchAttempt(last.Outcome.String())

			switch last.Outcome {
			case Success:
				state = Succeeded
			case FatalFailure:
				a.logger.Debug("token fetch for %s failed permanently: %v", accountID, last.Err)
				state = Failed
			default:
				remaining--
				if remaining > 0 {
					a.logger.Debug("token fetch attempt %d/%d for %s failed: %v", attempt, a.maxAttempts, accountID, last.Err)
					state = Retrying
				} else {
					state = Failed
				}
			}
			a.enter(state)

		case Retrying:
			a.sleeper.Sleep(a.delay)
			state = Attempting
			a.enter(state)

		case Succeeded:
			a.metrics.RecordAcquisition(true, time.Since(start))
			return last.Token, nil

		case Failed:
			a.metrics.RecordAcquisition(false, time.Since(start))
			if last.Outcome == FatalFailure {
				return "", last.Err
			}
			a.logger.Warn("giving up on %s token for %s after %d attempts", tokenType, accountID, attempt)
			return "", &AcquisitionError{
				AccountID: accountID,
				TokenType: tokenType,
				Attempts:  attempt,
				Err:       last.Err,
			}
		}
	}
}

func (a *Acquirer) enter(s State) {
	if a.observer != nil {
		a.observer(s)
	}
}

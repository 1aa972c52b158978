package token_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/dsauth/pkg/token"
)

// scriptedFetcher returns the scripted results in order and repeats the last
// one once the script is exhausted.
type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
	gotArgs []string
}

type fetchResult struct {
	token string
	err   error
}

func (f *scriptedFetcher) FetchToken(_ context.Context, accountID, tokenType string, notify bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gotArgs = append(f.gotArgs, fmt.Sprintf("%s|%s|%t", accountID, tokenType, notify))
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i].token, f.results[i].err
}

type countingSleeper struct {
	sleeps []time.Duration
}

func (s *countingSleeper) Sleep(d time.Duration) {
	s.sleeps = append(s.sleeps, d)
}

func failures(n int, err error) []fetchResult {
	out := make([]fetchResult, n)
	for i := range out {
		out[i] = fetchResult{err: err}
	}
	return out
}

func TestAcquire_SucceedsOnLastAttempt(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 3, 5} {
		n := n
		t.Run(fmt.Sprintf("max_%d", n), func(t *testing.T) {
			t.Parallel()

			fetcher := &scriptedFetcher{
				results: append(failures(n-1, token.ErrIO), fetchResult{token: "user_creds_auth_token:abc"}),
			}
			sleeper := &countingSleeper{}
			a := token.NewAcquirer(fetcher,
				token.WithMaxAttempts(n),
				token.WithDelay(50*time.Millisecond),
				token.WithSleeper(sleeper))

			tok, err := a.Acquire(context.Background(), "alice", "password:")
			require.NoError(t, err)
			assert.Equal(t, "user_creds_auth_token:abc", tok)
			assert.Equal(t, n, fetcher.calls)
			assert.Len(t, sleeper.sleeps, n-1)
			for _, d := range sleeper.sleeps {
				assert.Equal(t, 50*time.Millisecond, d)
			}
		})
	}
}

func TestAcquire_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		fetch fetchResult
		cause error
	}{
		{name: "empty_token", fetch: fetchResult{}, cause: token.ErrEmptyToken},
		{name: "cancelled", fetch: fetchResult{err: token.ErrCancelled}, cause: token.ErrCancelled},
		{name: "context_cancelled", fetch: fetchResult{err: context.Canceled}, cause: context.Canceled},
		{name: "io", fetch: fetchResult{err: fmt.Errorf("keyring: %w", token.ErrIO)}, cause: token.ErrIO},
		{
			name:  "transient_authenticator",
			fetch: fetchResult{err: &token.AuthenticatorError{Reason: "busy", Transient: true}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fetcher := &scriptedFetcher{results: []fetchResult{tt.fetch}}
			sleeper := &countingSleeper{}
			a := token.NewAcquirer(fetcher, token.WithSleeper(sleeper))

			tok, err := a.Acquire(context.Background(), "alice", "password:")
			assert.Empty(t, tok)
			require.ErrorIs(t, err, token.ErrAcquisitionFailed)

			var acqErr *token.AcquisitionError
			require.ErrorAs(t, err, &acqErr)
			assert.Equal(t, token.DefaultMaxAttempts, acqErr.Attempts)
			assert.Equal(t, "alice", acqErr.AccountID)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}

			assert.Equal(t, token.DefaultMaxAttempts, fetcher.calls)
			assert.Len(t, sleeper.sleeps, token.DefaultMaxAttempts-1)
			assert.Equal(t, token.DefaultDelay, sleeper.sleeps[0])
		})
	}
}

func TestAcquire_FatalErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	fatal := &token.AuthenticatorError{Reason: "unknown auth token type"}
	fetcher := &scriptedFetcher{results: []fetchResult{{err: fatal}, {token: "never"}}}
	sleeper := &countingSleeper{}
	a := token.NewAcquirer(fetcher, token.WithSleeper(sleeper))

	_, err := a.Acquire(context.Background(), "alice", "bogus:")
	require.Error(t, err)
	assert.Same(t, fatal, err)
	assert.NotErrorIs(t, err, token.ErrAcquisitionFailed)
	assert.Equal(t, 1, fetcher.calls)
	assert.Empty(t, sleeper.sleeps)
}

func TestAcquire_FatalAfterRetryable(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	fetcher := &scriptedFetcher{results: []fetchResult{{err: token.ErrIO}, {err: boom}}}
	sleeper := &countingSleeper{}
	a := token.NewAcquirer(fetcher, token.WithSleeper(sleeper), token.WithMaxAttempts(5))

	_, err := a.Acquire(context.Background(), "alice", "password:")
	assert.Same(t, boom, err)
	assert.Equal(t, 2, fetcher.calls)
	assert.Len(t, sleeper.sleeps, 1)
}

func TestAcquire_PassesArguments(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []fetchResult{{token: "t"}}}
	a := token.NewAcquirer(fetcher, token.WithSleeper(&countingSleeper{}))

	_, err := a.Acquire(context.Background(), "bob", "anonymous:")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob|anonymous:|true"}, fetcher.gotArgs)
}

func TestAcquire_StateTransitions(t *testing.T) {
	t.Parallel()

	var states []token.State
	fetcher := &scriptedFetcher{results: []fetchResult{{err: token.ErrIO}, {token: "t"}}}
	a := token.NewAcquirer(fetcher,
		token.WithSleeper(&countingSleeper{}),
		token.WithObserver(func(s token.State) { states = append(states, s) }))

	_, err := a.Acquire(context.Background(), "alice", "password:")
	require.NoError(t, err)
	assert.Equal(t, []token.State{
		token.Attempting,
		token.Retrying,
		token.Attempting,
		token.Succeeded,
	}, states)
}

func TestAcquire_FailedState(t *testing.T) {
	t.Parallel()

	var states []token.State
	fetcher := &scriptedFetcher{results: []fetchResult{{}}}
	a := token.NewAcquirer(fetcher,
		token.WithMaxAttempts(1),
		token.WithSleeper(&countingSleeper{}),
		token.WithObserver(func(s token.State) { states = append(states, s) }))

	_, err := a.Acquire(context.Background(), "alice", "password:")
	require.ErrorIs(t, err, token.ErrEmptyToken)
	assert.Equal(t, []token.State{token.Attempting, token.Failed}, states)
}

func TestNewAcquirer_Options(t *testing.T) {
	t.Parallel()

	a := token.NewAcquirer(nil)
	assert.Equal(t, token.DefaultMaxAttempts, a.MaxAttempts())
	assert.Equal(t, token.DefaultDelay, a.Delay())

	a = token.NewAcquirer(nil, token.WithMaxAttempts(0), token.WithDelay(-time.Second))
	assert.Equal(t, 1, a.MaxAttempts())
	assert.Equal(t, time.Duration(0), a.Delay())
}

func TestAcquire_RealSleeper(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{results: []fetchResult{{err: token.ErrIO}, {token: "t"}}}
	a := token.NewAcquirer(fetcher, token.WithDelay(5*time.Millisecond))

	start := time.Now()
	_, err := a.Acquire(context.Background(), "alice", "password:")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)
}

func TestFetcherFunc(t *testing.T) {
	t.Parallel()

	f := token.FetcherFunc(func(_ context.Context, id, typ string, _ bool) (string, error) {
		return id + "/" + typ, nil
	})
	tok, err := token.NewAcquirer(f).Acquire(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", tok)
}

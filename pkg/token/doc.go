// Package token acquires session tokens from a blocking source that may fail
// transiently.
//
// An Acquirer calls a Fetcher up to MaxAttempts times. Every call is classified
// into one of three outcomes:
//
//   - Success: a non-empty token was returned and is handed to the caller.
//   - RetryableFailure: the token was empty, the call was cancelled, an I/O
//     error occurred or the authenticator reported a transient error. The
//     Acquirer sleeps for Delay and tries again until attempts run out, then
//     returns an *AcquisitionError carrying the last cause.
//   - FatalFailure: anything else, most notably a non-transient
//     *AuthenticatorError. It is returned immediately.
//
// Acquire blocks for up to MaxAttempts × Delay plus the latency of the fetch
// calls. The delay between attempts cannot be interrupted, so never call it on
// a goroutine that must stay responsive.
package token

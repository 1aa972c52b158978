// Package fakes provides test doubles for the cloud clients behind the
// account stores.
//
// Fakes are manually implemented (not generated) and keep their state in
// plain maps so tests can seed and inspect it directly. Each fake returns
// the same error types as the real SDK for missing items, so the stores'
// not-found handling is exercised unchanged.
//
// Usage:
//
//	fake := fakes.NewFakeSSMClient()
//	fake.AddParameter("/dsauth/alice", "password:...")
//	store, _ := accountstore.NewSSMStore(nil, accountstore.WithSSMClient(fake))
package fakes

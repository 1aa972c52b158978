// Package authenticator is the in-process token source.
//
// A Service reads protected secrets from an account store, turns them into
// auth tokens through the scheme registry and caches the result. It is the
// token.Fetcher behind every handler's acquirer, so New wires the three
// together: the acquirer fetches from the service and the registry's handlers
// acquire through that acquirer.
package authenticator

// Package obfuscation provides the reversible string transforms that sit underneath
// the protected secret format.
//
// None of the strategies in this package are encryption. They exist to keep secret
// material from being readable by casual inspection of a configuration file, a
// keyring entry or a process argument list. Anybody with access to this source code
// can reverse every one of them.
//
// # Strategies
//
// Three strategies are built in:
//
//   - identity: returns its input unchanged. Meant for tests and local debugging.
//   - base64: standard base64 of the UTF-8 bytes. Opaque to a glance, nothing more.
//   - xor: XOR with a fixed embedded key (and an optional caller supplied key
//     fragment), then base64.
//
// # Selection
//
// A strategy is chosen once at startup by name and then shared:
//
//	strategy, err := obfuscation.New(cfg.Obfuscation)
//	if err != nil {
//	    return err
//	}
//	codec := secret.NewCodec(strategy)
//
// Strategies are stateless and safe for concurrent use.
//
// # Key fragments
//
// Every call takes a key fragment. The same fragment must be supplied to Obfuscate
// and Deobfuscate. An empty fragment means "no fragment". Strategies that do not use
// key material ignore it. A mismatched fragment is not detected; the result is
// garbage rather than an error.
package obfuscation

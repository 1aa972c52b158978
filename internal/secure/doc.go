// Package secure keeps session tokens out of ordinary heap memory.
//
// A SecureBuffer wraps a memguard enclave: the bytes are encrypted while at
// rest and only decrypted into a locked buffer for the moment they are needed.
//
//	buf, err := secure.NewSecureString(tok)
//	if err != nil {
//	    return err
//	}
//	defer buf.Destroy()
//
//	plain, err := buf.Reveal()
//
// Memory locking depends on the platform. On Linux RLIMIT_MEMLOCK must allow
// it; memguard falls back to ordinary memory when it cannot lock.
//
// This is defence in depth for the running process. It does not protect
// against an attacker with access to the process, and it does not make the
// obfuscated secret format any stronger.
package secure

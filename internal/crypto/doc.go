// Package crypto provides the cryptographic primitives for envault.
//
// The remote service stores only ciphertext and wrapped keys; it can never
// derive plaintext secrets or private keys. Everything in this package runs
// locally.
//
// # Key Hierarchy
//
// envault uses a three-level hybrid scheme:
//
//  1. A password-derived user key (PBKDF2-SHA256, 100 000 iterations) wraps
//     the account's X25519 private key for storage on the remote service.
//  2. Each workspace has a random 256-bit symmetric key; a copy is sealed for
//     every member with NaCl's anonymous sealed boxes, so only that member's
//     private key can unwrap it.
//  3. Secret values are encrypted with the workspace key using NaCl secretbox,
//     with a random 24-byte nonce prepended to the ciphertext.
//
// Encryption is non-deterministic at every level: re-encrypting the same
// value produces different output, so the server cannot observe ciphertext
// equality.
//
// # Integrity
//
// Every decryption and unwrap is authenticated. Failures surface as
// errors.ErrDecryptionIntegrity, which deliberately does not distinguish
// wrong key, wrong key version, and tampering. The private-key unwrap's
// integrity check is also the only password verification envault has.
package crypto

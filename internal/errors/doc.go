// Package errors provides typed error values for the envault client.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. This makes
// error handling more robust and refactoring-safe.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Authentication errors: credentials or session state (ErrAuthentication,
//     ErrAuthenticationRequired)
//   - Crypto errors: integrity failures on unwrap/decrypt (ErrDecryptionIntegrity)
//   - Key custody errors: missing or stale key material (ErrKeyNotFound)
//   - Share-protocol errors: workspace state machine failures (ErrMigrationAborted)
//   - Project errors: local binding issues (ErrProjectNotBound)
//   - Transport errors: remote-call classification (ErrTransientNetwork)
//
// # Classification rules
//
// Cryptographic failures are never downgraded to "not found": every decryption
// failure is classified as ErrDecryptionIntegrity before being surfaced, and
// the only place it is re-classified is login, where a failed private-key
// unwrap surfaces as ErrAuthentication because a wrong password and a corrupt
// keyring cannot be told apart.
//
// Wrap errors with additional context at call sites:
//
//	return fmt.Errorf("unwrapping key for workspace %s: %w", id, errors.ErrKeyNotFound)
package errors

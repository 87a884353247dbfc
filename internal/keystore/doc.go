// Package keystore abstracts secure local byte storage behind a small
// capability interface, so the crypto core has no platform dependency.
//
// Two implementations exist:
//
//   - System: the OS keychain via 99designs/keyring (macOS Keychain, Windows
//     Credential Manager, Secret Service, with a file fallback)
//   - Memory: an in-process map used by tests
//
// envault stores exactly two items: the session tokens and the account's
// plaintext private key (so later invocations need not re-prompt for the
// password). Plaintext workspace keys are never persisted; they live only
// in the per-process cache.
package keystore

// Package vault holds the in-memory key material of an unlocked account:
// the X25519 keypair and a per-workspace cache of unwrapped symmetric keys.
//
// The cache is keyed by workspace and pinned to a key version. Any version
// mismatch drops the entry and refetches the sealed copy from the service,
// so decryption never runs with a key older than the record being opened.
// Nothing in this package is written to disk.
package vault

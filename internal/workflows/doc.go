// Package workflows contains the business logic behind every CLI command:
// account lifecycle, secret push and pull, and the sharing protocol that
// takes a project from a single-owner personal workspace to a shared one.
//
// Workflows are methods on an Engine holding the API client, session
// guard, and key storage, so tests drive them against in-memory fakes.
// Each workflow accepts an Options struct and returns a Result struct;
// rendering is left entirely to the command layer.
//
// All encryption and decryption happens here or below. Plaintext secrets,
// workspace keys, and the account private key never appear in a request
// body; the service only ever receives sealed or secretbox ciphertext.
package workflows

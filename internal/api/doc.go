// Package api is the wire layer between the client and the secrets
// service. It defines the JSON request and response shapes and a Client
// interface that the workflow layer depends on, so tests can swap in an
// in-memory service.
//
// Everything crossing this boundary is already encrypted. Secret values
// arrive as ciphertext, workspace keys as sealed boxes addressed to a
// member's public key, and the account private key wrapped under the
// password-derived key. The service never receives material it could
// decrypt.
package api

// Package session manages the login session: token persistence in the OS
// keyring and the guard every remote workflow passes through before
// touching the network.
//
// The guard refreshes an expired access token at most once per check. A
// failed refresh never mutates stored state, so a retried command after
// re-login starts clean.
package session

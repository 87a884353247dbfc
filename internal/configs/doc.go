// Package configs handles the two TOML files the CLI reads and writes:
// the per-user config naming the account and service, and the per-project
// binding that ties a directory to a project and its workspace.
//
// Neither file ever contains secrets, keys, or tokens. Key material lives
// in the OS keyring, session tokens with it, and secret values only on the
// service in encrypted form.
package configs

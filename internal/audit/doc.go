// Package audit keeps a local JSON Lines trail of secret operations at
// .envault/audit.jsonl inside the bound project. Entries record who did
// what and when; they never contain secret values, keys, or tokens.
package audit

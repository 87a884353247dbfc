// Package logger provides leveled logging for envault CLI commands.
//
// The logger supports multiple verbosity levels controlled by command-line
// flags:
//
//   - --verbose: shows info messages
//   - --debug: shows all messages including debug details
//
// Without flags, only warnings and errors are shown.
//
// Commands create a logger in their PersistentPreRun and pass it to
// internal functions.
//
// The logger must never be handed password bytes, derived keys, plaintext
// workspace keys, or token values; call sites log identifiers and counts only.
package logger

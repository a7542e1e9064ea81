// Package logging configures structured slog output for coderag.
//
// The CLI logs warnings to stderr by default. With --debug, JSON logs at
// debug level are also written to ~/.coderag/logs/coderag.log through a
// size-rotating writer.
package logging

// Package exitcode defines exit codes for the CLI.
package exitcode

// Process exit codes.
const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, validation, not found).
	UserError = 1

	// AuthError indicates a missing, expired or rejected session.
	AuthError = 2

	// BackendError indicates a server or network failure.
	BackendError = 3
)

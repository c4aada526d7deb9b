// Package exitcode defines the process exit codes of the todo CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates bad input: unknown command or flag, blank text,
	// a task reference that matches nothing.
	UserError = 1

	// AuthError indicates missing configuration, no session, or a rejected
	// sign-in.
	AuthError = 2

	// BackendError indicates a store, network or local database failure.
	BackendError = 3
)

// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/profile"
	"todosync/internal/service"
	"todosync/internal/tasklist"
)

// Requirement says what a command needs from the backend before it runs.
type Requirement int

const (
	// NeedsNothing commands run without a backend (help, version).
	NeedsNothing Requirement = iota

	// NeedsBackend commands need the auth provider but no session (login, logout).
	NeedsBackend

	// NeedsSession commands need a signed-in user and the document store.
	NeedsSession
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Requires reports what the dispatcher must set up before Run.
	Requires() Requirement

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *pflag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// b is nil if Requires() returns NeedsNothing.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int
}

// exitFor classifies err into an exit code.
func exitFor(err error) int {
	var (
		authErr  *service.AuthError
		inputErr *inputError
	)
	switch {
	case errors.Is(err, service.ErrNotSignedIn), errors.As(err, &authErr):
		return exitcode.AuthError
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, tasklist.ErrEmptyText),
		errors.Is(err, profile.ErrEmptyUsername),
		errors.Is(err, profile.ErrNotImage),
		errors.As(err, &inputErr):
		return exitcode.UserError
	default:
		return exitcode.BackendError
	}
}

// inputError is input rejected before any remote call.
type inputError struct {
	msg string
}

func (e *inputError) Error() string {
	return e.msg
}

func invalid(msg string) error {
	return &inputError{msg: msg}
}

// report prints err for action and returns its exit code.
// Store failures print a generic notice; the cause goes to the debug log.
func report(ctx context.Context, cfg *config.Config, errOut io.Writer, action string, err error) int {
	code := exitFor(err)
	var authErr *service.AuthError
	switch {
	case errors.As(err, &authErr):
		fmt.Fprintf(errOut, "error: %s\n", authErr.Message)
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintln(errOut, "error: task not found")
	case errors.Is(err, service.ErrNotSignedIn):
		fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
	case code == exitcode.BackendError:
		fmt.Fprintf(errOut, "error: failed to %s\n", action)
		cfg.Logger().DebugContext(ctx, "backend call failed", "action", action, "error", err)
	default:
		fmt.Fprintf(errOut, "error: %s\n", err)
	}
	return code
}

// currentUser returns the signed-in user or ErrNotSignedIn.
func currentUser(b *service.Backend) (service.User, error) {
	if b == nil || b.Auth == nil {
		return service.User{}, service.ErrNotSignedIn
	}
	user, ok := b.Auth.CurrentUser()
	if !ok {
		return service.User{}, service.ErrNotSignedIn
	}
	return user, nil
}

// newSync builds the task list over the backend's store.
func newSync(cfg *config.Config, b *service.Backend) *tasklist.Sync {
	return tasklist.New(b.Store,
		tasklist.WithCollection(b.Collection),
		tasklist.WithLogger(cfg.Logger()),
	)
}

func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// Package cli maps command-line arguments onto registered commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"todosync/internal/commands"
	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
)

// BackendFactory builds the backend a command runs against.
// The Store may be left nil when no session exists.
type BackendFactory func(ctx context.Context, cfg *config.Config) (*service.Backend, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  BackendFactory
}

// NewDispatcher creates a new dispatcher with the given registry and backend factory.
func NewDispatcher(registry *commands.Registry, factory BackendFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// common holds the flags every command accepts.
type common struct {
	configDir string
	quiet     bool
	debug     bool
}

// Run parses arguments and dispatches to the appropriate command.
// With no command it lists tasks. Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	var (
		flags common
		code  = exitcode.Success
	)

	root := &cobra.Command{
		Use:           "todo",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cc *cobra.Command, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unknown command: %s", args[0])
			}
			return nil
		},
	}
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetHelpFunc(func(cc *cobra.Command, _ []string) {
		fmt.Fprint(cc.OutOrStdout(), commands.HelpText)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config", "", "override config directory")
	pf.BoolVar(&flags.quiet, "quiet", false, "suppress informational output")
	pf.BoolVar(&flags.debug, "debug", false, "print debug logs to stderr")

	bind := func(cmd commands.Command) func(*cobra.Command, []string) error {
		return func(cc *cobra.Command, args []string) error {
			code = d.dispatch(cc.Context(), cmd, flags, args, out, errOut)
			return nil
		}
	}

	for _, cmd := range d.registry.All() {
		cc := &cobra.Command{
			Use:     cmd.Name(),
			Aliases: cmd.Aliases(),
			Short:   cmd.Synopsis(),
			Long:    cmd.Usage(),
			Args:    cobra.ArbitraryArgs,
			RunE:    bind(cmd),
		}
		cmd.RegisterFlags(cc.Flags())

		if cmd.Name() == "help" {
			root.SetHelpCommand(cc)
			continue
		}
		root.AddCommand(cc)
	}

	if list, ok := d.registry.Find("list"); ok {
		root.RunE = bind(list)
	}

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	return code
}

// dispatch loads config, prepares what cmd requires and runs it.
func (d *Dispatcher) dispatch(ctx context.Context, cmd commands.Command, flags common, args []string, out, errOut io.Writer) int {
	cfg, err := config.New(flags.configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = flags.quiet
	cfg.Debug = flags.debug

	if cmd.Requires() == commands.NeedsNothing {
		return cmd.Run(ctx, cfg, nil, args, out, errOut)
	}

	if d.factory == nil {
		fmt.Fprintln(errOut, "error: backend error: no backend available")
		return exitcode.BackendError
	}
	b, err := d.factory(ctx, cfg)
	if err != nil {
		var authErr *service.AuthError
		if errors.Is(err, config.ErrNotConfigured) ||
			errors.Is(err, service.ErrNotSignedIn) ||
			errors.As(err, &authErr) {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: backend error: %s\n", err)
		return exitcode.BackendError
	}
	defer func() {
		if err := b.Close(); err != nil {
			cfg.Logger().DebugContext(ctx, "backend close failed", "error", err)
		}
	}()

	if cmd.Requires() == commands.NeedsSession {
		if _, ok := b.Auth.CurrentUser(); !ok || b.Store == nil {
			fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
			return exitcode.AuthError
		}
	}

	cfg.Logger().DebugContext(ctx, "dispatch", "command", cmd.Name(), "args", len(args))
	return cmd.Run(ctx, cfg, b, args, out, errOut)
}

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string          { return "logout" }
func (c *LogoutCmd) Aliases() []string     { return []string{"signout"} }
func (c *LogoutCmd) Synopsis() string      { return "Sign out and remove the stored session" }
func (c *LogoutCmd) Usage() string         { return "todo logout [common flags]" }
func (c *LogoutCmd) Requires() Requirement { return NeedsBackend }

func (c *LogoutCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	if _, ok := b.Auth.CurrentUser(); !ok {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := b.Auth.SignOut(ctx); err != nil {
		fmt.Fprintf(errOut, "error: failed to sign out: %v\n", err)
		return exitcode.AuthError
	}
	return ok(cfg, out)
}

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
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string          { return "rm" }
func (c *RmCmd) Aliases() []string     { return []string{"delete"} }
func (c *RmCmd) Synopsis() string      { return "Delete a task" }
func (c *RmCmd) Usage() string         { return "todo rm <ref>" }
func (c *RmCmd) Requires() Requirement { return NeedsSession }

func (c *RmCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	user, err := currentUser(b)
	if err != nil {
		return report(ctx, cfg, errOut, "delete task", err)
	}

	tl := newSync(cfg, b)
	task, err := lookupTask(ctx, tl, user.ID, ref)
	if err != nil {
		return report(ctx, cfg, errOut, "delete task", err)
	}

	if err := tl.DeleteTask(ctx, task.ID); err != nil {
		return report(ctx, cfg, errOut, "delete task", err)
	}
	return ok(cfg, out)
}

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
	Register(&ToggleCmd{})
}

// ToggleCmd implements the toggle command: it flips a task between open and
// completed.
type ToggleCmd struct{}

func (c *ToggleCmd) Name() string          { return "toggle" }
func (c *ToggleCmd) Aliases() []string     { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string      { return "Toggle a task's completed state" }
func (c *ToggleCmd) Usage() string         { return "todo toggle <ref>" }
func (c *ToggleCmd) Requires() Requirement { return NeedsSession }

func (c *ToggleCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ToggleCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	user, err := currentUser(b)
	if err != nil {
		return report(ctx, cfg, errOut, "update task", err)
	}

	tl := newSync(cfg, b)
	task, err := lookupTask(ctx, tl, user.ID, ref)
	if err != nil {
		return report(ctx, cfg, errOut, "update task", err)
	}

	if err := tl.ToggleCompleted(ctx, task.ID, task.Completed); err != nil {
		return report(ctx, cfg, errOut, "update task", err)
	}
	return ok(cfg, out)
}

package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/output"
	"todosync/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `todo` (no args) and `todo list`.
type ListCmd struct {
	done bool
	open bool
}

func (c *ListCmd) Name() string          { return "list" }
func (c *ListCmd) Aliases() []string     { return []string{"ls"} }
func (c *ListCmd) Synopsis() string      { return "List tasks" }
func (c *ListCmd) Usage() string         { return "todo list [--open | --done]" }
func (c *ListCmd) Requires() Requirement { return NeedsSession }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&c.open, "open", false, "only open tasks")
	fs.BoolVar(&c.done, "done", false, "only completed tasks")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.open && c.done {
		fmt.Fprintln(errOut, "error: cannot use both --open and --done")
		return exitcode.UserError
	}

	user, err := currentUser(b)
	if err != nil {
		return report(ctx, cfg, errOut, "list tasks", err)
	}

	tasks, err := firstSnapshot(ctx, newSync(cfg, b), user.ID)
	if err != nil {
		return report(ctx, cfg, errOut, "list tasks", err)
	}

	// numbering always follows the full list so refs stay valid
	if !c.open && !c.done {
		output.FormatTasks(out, tasks)
		return exitcode.Success
	}
	shown := 0
	for i, task := range tasks {
		if task.Completed == c.done {
			output.FormatTask(out, i+1, task)
			shown++
		}
	}
	if shown == 0 {
		fmt.Fprintln(out, output.EmptyList)
	}
	return exitcode.Success
}

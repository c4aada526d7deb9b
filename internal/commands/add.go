package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	printID bool
}

func (c *AddCmd) Name() string          { return "add" }
func (c *AddCmd) Aliases() []string     { return []string{"create"} }
func (c *AddCmd) Synopsis() string      { return "Create a task" }
func (c *AddCmd) Usage() string         { return "todo add [--id] <text...>" }
func (c *AddCmd) Requires() Requirement { return NeedsSession }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&c.printID, "id", false, "print the new task's ID")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	user, err := currentUser(b)
	if err != nil {
		return report(ctx, cfg, errOut, "add task", err)
	}

	id, err := newSync(cfg, b).AddTask(ctx, user.ID, strings.Join(args, " "))
	if err != nil {
		return report(ctx, cfg, errOut, "add task", err)
	}

	if c.printID {
		fmt.Fprintln(out, id)
		return exitcode.Success
	}
	return ok(cfg, out)
}

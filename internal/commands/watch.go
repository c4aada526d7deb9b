package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/output"
	"todosync/internal/service"
	"todosync/internal/tasklist"
)

func init() {
	Register(&WatchCmd{})
}

// WatchCmd implements the watch command: it prints every snapshot of the
// task list until interrupted or signed out.
type WatchCmd struct {
	count int
}

func (c *WatchCmd) Name() string          { return "watch" }
func (c *WatchCmd) Aliases() []string     { return nil }
func (c *WatchCmd) Synopsis() string      { return "Follow task changes live" }
func (c *WatchCmd) Usage() string         { return "todo watch [--count <n>]" }
func (c *WatchCmd) Requires() Requirement { return NeedsSession }

func (c *WatchCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.IntVarP(&c.count, "count", "n", 0, "stop after n snapshots")
}

func (c *WatchCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	if c.count < 0 {
		fmt.Fprintf(errOut, "error: invalid count: %d\n", c.count)
		return exitcode.UserError
	}

	user, err := currentUser(b)
	if err != nil {
		return report(ctx, cfg, errOut, "watch tasks", err)
	}

	v, err := newSync(cfg, b).Subscribe(ctx, user.ID)
	if err != nil {
		return report(ctx, cfg, errOut, "watch tasks", err)
	}
	defer v.Close()

	unsubscribe := b.Auth.OnAuthStateChanged(func(ev service.AuthEvent) {
		if ev.State == service.SignedOut {
			v.Close()
		}
	})
	defer unsubscribe()

	for shown := 0; c.count == 0 || shown < c.count; shown++ {
		snap, err := v.Next(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil, errors.Is(err, tasklist.ErrClosed):
			return exitcode.Success
		default:
			return report(ctx, cfg, errOut, "watch tasks", err)
		}

		if shown > 0 {
			fmt.Fprintln(out, output.ListSeparator)
		}
		output.FormatTasks(out, snap.Tasks)
	}
	return exitcode.Success
}

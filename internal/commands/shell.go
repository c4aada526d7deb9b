package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/output"
	"todosync/internal/service"
	"todosync/internal/tasklist"
)

func init() {
	Register(&ShellCmd{})
}

// ShellHelp lists the commands understood inside the shell.
const ShellHelp = `Commands:
  list                 Show tasks
  add <text...>        Add a task
  toggle <ref>         Flip completed (alias: done)
  rm <ref>             Delete a task (alias: delete)
  profile              Show your profile
  rename <name...>     Change your display name
  logout               Sign out and leave
  help                 Show this help
  quit                 Leave (alias: exit)
`

// ShellCmd implements the interactive shell: one subscription stays open
// while commands are read line by line.
type ShellCmd struct {
	in io.Reader
}

// SetInput sets where commands are read from (for testing).
func (c *ShellCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *ShellCmd) Name() string          { return "shell" }
func (c *ShellCmd) Aliases() []string     { return []string{"sh"} }
func (c *ShellCmd) Synopsis() string      { return "Interactive task session" }
func (c *ShellCmd) Usage() string         { return "todo shell" }
func (c *ShellCmd) Requires() Requirement { return NeedsSession }

func (c *ShellCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ShellCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	user, err := currentUser(b)
	if err != nil {
		return report(ctx, cfg, errOut, "load tasks", err)
	}

	s := newSync(cfg, b)
	v, err := s.Subscribe(ctx, user.ID)
	if err != nil {
		return report(ctx, cfg, errOut, "load tasks", err)
	}
	defer v.Close()

	unsubscribe := b.Auth.OnAuthStateChanged(func(ev service.AuthEvent) {
		if ev.State == service.SignedOut {
			v.Close()
		}
	})
	defer unsubscribe()

	first, err := awaitChange(ctx, v, 0)
	if err != nil {
		return report(ctx, cfg, errOut, "load tasks", err)
	}
	output.FormatTasks(out, first)

	sh := &shell{
		ctx:    ctx,
		cfg:    cfg,
		b:      b,
		sync:   s,
		view:   v,
		user:   user,
		out:    out,
		errOut: errOut,
	}

	in := c.in
	if in == nil {
		in = os.Stdin
	}
	scanner := bufio.NewScanner(in)
	for {
		if !cfg.Quiet {
			fmt.Fprint(errOut, "> ")
		}
		if !scanner.Scan() {
			break
		}
		if done := sh.exec(strings.Fields(scanner.Text())); done {
			return exitcode.Success
		}
		if err := v.Err(); err != nil {
			return report(ctx, cfg, errOut, "watch tasks", err)
		}
		if ctx.Err() != nil {
			return exitcode.Success
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}

// shell holds the state of one interactive session.
type shell struct {
	ctx    context.Context
	cfg    *config.Config
	b      *service.Backend
	sync   *tasklist.Sync
	view   *tasklist.View
	user   service.User
	out    io.Writer
	errOut io.Writer
}

// exec runs one command line and reports whether the session is over.
func (sh *shell) exec(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	name, args := fields[0], fields[1:]

	// pushes that arrived while idle are already reflected in the latest snapshot
	latest := sh.view.Drain()

	switch name {
	case "list", "ls":
		output.FormatTasks(sh.out, latest.Tasks)
	case "add", "create":
		seq := sh.view.Seq()
		if _, err := sh.sync.AddTask(sh.ctx, sh.user.ID, strings.Join(args, " ")); err != nil {
			report(sh.ctx, sh.cfg, sh.errOut, "add task", err)
			return false
		}
		sh.render(seq)
	case "toggle", "done":
		task, ok := sh.resolve(args)
		if !ok {
			return false
		}
		seq := sh.view.Seq()
		if err := sh.sync.ToggleCompleted(sh.ctx, task.ID, task.Completed); err != nil {
			report(sh.ctx, sh.cfg, sh.errOut, "update task", err)
			return false
		}
		sh.render(seq)
	case "rm", "delete":
		task, ok := sh.resolve(args)
		if !ok {
			return false
		}
		seq := sh.view.Seq()
		if err := sh.sync.DeleteTask(sh.ctx, task.ID); err != nil {
			report(sh.ctx, sh.cfg, sh.errOut, "delete task", err)
			return false
		}
		sh.render(seq)
	case "profile", "whoami":
		p, err := newProfile(sh.cfg, sh.b).Load(sh.ctx)
		if err != nil {
			report(sh.ctx, sh.cfg, sh.errOut, "load profile", err)
			return false
		}
		output.FormatProfile(sh.out, p)
	case "rename":
		if err := newProfile(sh.cfg, sh.b).UpdateUsername(sh.ctx, strings.Join(args, " ")); err != nil {
			report(sh.ctx, sh.cfg, sh.errOut, "update username", err)
			return false
		}
		ok(sh.cfg, sh.out)
	case "logout":
		if err := sh.b.Auth.SignOut(sh.ctx); err != nil {
			report(sh.ctx, sh.cfg, sh.errOut, "sign out", err)
			return false
		}
		ok(sh.cfg, sh.out)
		return true
	case "help", "?":
		fmt.Fprint(sh.out, ShellHelp)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(sh.errOut, "error: unknown command: %s\n", name)
	}
	return false
}

// resolve parses a task reference against the current snapshot.
func (sh *shell) resolve(args []string) (service.Task, bool) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(sh.errOut, "error: %v\n", err)
		return service.Task{}, false
	}
	task, err := ref.Resolve(sh.view.Tasks())
	if err != nil {
		fmt.Fprintf(sh.errOut, "error: %v\n", err)
		return service.Task{}, false
	}
	return task, true
}

// render waits for the store to push the result of a mutation and prints it.
func (sh *shell) render(seq uint64) {
	tasks, err := awaitChange(sh.ctx, sh.view, seq)
	switch {
	case err == nil:
		output.FormatTasks(sh.out, tasks)
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintln(sh.errOut, "error: timed out waiting for update")
	case errors.Is(err, tasklist.ErrClosed), sh.ctx.Err() != nil:
	default:
		report(sh.ctx, sh.cfg, sh.errOut, "watch tasks", err)
	}
}

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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string          { return "help" }
func (c *HelpCmd) Aliases() []string     { return nil }
func (c *HelpCmd) Synopsis() string      { return "Print usage" }
func (c *HelpCmd) Usage() string         { return "todo help" }
func (c *HelpCmd) Requires() Requirement { return NeedsNothing }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, HelpText)
	return exitcode.Success
}

// HelpText is the full usage message.
const HelpText = `Usage:
  todo                                  List tasks
  todo list [common flags] [--open | --done]
  todo add [common flags] [--id] <text...>
  todo toggle [common flags] <ref>      Flip completed (alias: done)
  todo rm [common flags] <ref>          Delete a task (alias: delete)
  todo watch [common flags] [--count <n>]
  todo shell [common flags]
  todo login [common flags] [--email <email>] [--password <password>]
  todo register [common flags] [--email <email>] [--password <password>] [--confirm <password>]
  todo logout [common flags]
  todo profile [common flags]
  todo rename [common flags] <name...>
  todo avatar [common flags] <image-file>
  todo help
  todo version

A <ref> is a task number from "todo list" or a task ID.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`

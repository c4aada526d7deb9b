package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/output"
	"todosync/internal/profile"
	"todosync/internal/service"
)

func init() {
	Register(&ProfileCmd{})
	Register(&RenameCmd{})
	Register(&AvatarCmd{})
}

func newProfile(cfg *config.Config, b *service.Backend) *profile.Service {
	return profile.New(b.Auth, b.Images, cfg.Logger())
}

// ProfileCmd implements the profile command.
type ProfileCmd struct{}

func (c *ProfileCmd) Name() string          { return "profile" }
func (c *ProfileCmd) Aliases() []string     { return []string{"whoami"} }
func (c *ProfileCmd) Synopsis() string      { return "Show your profile" }
func (c *ProfileCmd) Usage() string         { return "todo profile" }
func (c *ProfileCmd) Requires() Requirement { return NeedsSession }

func (c *ProfileCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *ProfileCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	p, err := newProfile(cfg, b).Load(ctx)
	if err != nil {
		return report(ctx, cfg, errOut, "load profile", err)
	}
	output.FormatProfile(out, p)
	return exitcode.Success
}

// RenameCmd implements the rename command: it sets the display name.
type RenameCmd struct{}

func (c *RenameCmd) Name() string          { return "rename" }
func (c *RenameCmd) Aliases() []string     { return nil }
func (c *RenameCmd) Synopsis() string      { return "Change your display name" }
func (c *RenameCmd) Usage() string         { return "todo rename <name...>" }
func (c *RenameCmd) Requires() Requirement { return NeedsSession }

func (c *RenameCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RenameCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	if err := newProfile(cfg, b).UpdateUsername(ctx, strings.Join(args, " ")); err != nil {
		return report(ctx, cfg, errOut, "update username", err)
	}
	return ok(cfg, out)
}

// AvatarCmd implements the avatar command: it stores an image file as the
// profile picture.
type AvatarCmd struct{}

func (c *AvatarCmd) Name() string          { return "avatar" }
func (c *AvatarCmd) Aliases() []string     { return nil }
func (c *AvatarCmd) Synopsis() string      { return "Set your profile picture" }
func (c *AvatarCmd) Usage() string         { return "todo avatar <image-file>" }
func (c *AvatarCmd) Requires() Requirement { return NeedsSession }

func (c *AvatarCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *AvatarCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: image file required")
		return exitcode.UserError
	}

	user, err := currentUser(b)
	if err != nil {
		return report(ctx, cfg, errOut, "set image", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if _, err := newProfile(cfg, b).SetImage(ctx, user.ID, data); err != nil {
		return report(ctx, cfg, errOut, "save image", err)
	}
	return ok(cfg, out)
}

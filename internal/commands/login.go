package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
}

// credentials holds the flags shared by login and register.
type credentials struct {
	email    string
	password string
	in       io.Reader
}

func (c *credentials) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.email, "email", "e", "", "account email")
	fs.StringVarP(&c.password, "password", "p", "", "account password (prompted when omitted)")
}

// prompter reads answers to missing values, one line each.
// Secrets typed at a terminal are read without echo.
type prompter struct {
	r          *bufio.Reader
	errOut     io.Writer
	readSecret func() ([]byte, error)
}

func newPrompter(in io.Reader, errOut io.Writer) *prompter {
	p := &prompter{errOut: errOut}
	if in == nil {
		in = os.Stdin
		if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
			p.readSecret = func() ([]byte, error) { return term.ReadPassword(fd) }
		}
	}
	p.r = bufio.NewReader(in)
	return p
}

// fill prompts for *v when it is empty.
func (p *prompter) fill(label string, v *string) error {
	if *v != "" {
		return nil
	}
	fmt.Fprintf(p.errOut, "%s: ", label)
	line, err := p.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	*v = strings.TrimRight(line, "\r\n")
	return nil
}

// secret is fill for values that must not echo.
func (p *prompter) secret(label string, v *string) error {
	if p.readSecret == nil || *v != "" {
		return p.fill(label, v)
	}
	fmt.Fprintf(p.errOut, "%s: ", label)
	b, err := p.readSecret()
	// the terminal swallowed the newline
	fmt.Fprintln(p.errOut)
	if err != nil {
		return err
	}
	*v = string(b)
	return nil
}

// LoginCmd implements the login command.
type LoginCmd struct {
	credentials
}

// SetInput sets where prompts read from (for testing).
func (c *LoginCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *LoginCmd) Name() string          { return "login" }
func (c *LoginCmd) Aliases() []string     { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string      { return "Sign in with email and password" }
func (c *LoginCmd) Usage() string         { return "todo login [--email <email>] [--password <password>]" }
func (c *LoginCmd) Requires() Requirement { return NeedsBackend }

func (c *LoginCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.credentials.register(fs)
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	if user, ok := b.Auth.CurrentUser(); ok {
		if !cfg.Quiet {
			fmt.Fprintf(out, "already logged in as %s\n", user.Email)
		}
		return exitcode.Success
	}

	p := newPrompter(c.in, errOut)
	if err := p.fill("Email", &c.email); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err := p.secret("Password", &c.password); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	email := strings.TrimSpace(c.email)
	if email == "" || c.password == "" {
		fmt.Fprintln(errOut, "error: email and password required")
		return exitcode.UserError
	}

	user, err := b.Auth.SignIn(ctx, email, c.password)
	if err != nil {
		return report(ctx, cfg, errOut, "sign in", err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s\n", user.Email)
	}
	return exitcode.Success
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	credentials
	confirm string
}

// SetInput sets where prompts read from (for testing).
func (c *RegisterCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *RegisterCmd) Name() string          { return "register" }
func (c *RegisterCmd) Aliases() []string     { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string      { return "Create an account and sign in" }
func (c *RegisterCmd) Usage() string         { return "todo register [--email <email>] [--password <password>] [--confirm <password>]" }
func (c *RegisterCmd) Requires() Requirement { return NeedsBackend }

func (c *RegisterCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.credentials.register(fs)
	fs.StringVar(&c.confirm, "confirm", "", "repeat the password (prompted when omitted)")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, b *service.Backend, args []string, out, errOut io.Writer) int {
	p := newPrompter(c.in, errOut)
	for _, field := range []struct {
		label  string
		v      *string
		secret bool
	}{
		{"Email", &c.email, false},
		{"Password", &c.password, true},
		{"Confirm password", &c.confirm, true},
	} {
		read := p.fill
		if field.secret {
			read = p.secret
		}
		if err := read(field.label, field.v); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
	}

	email := strings.TrimSpace(c.email)
	if email == "" || c.password == "" {
		fmt.Fprintln(errOut, "error: email and password required")
		return exitcode.UserError
	}
	if c.confirm != c.password {
		fmt.Fprintln(errOut, "error: passwords do not match")
		return exitcode.UserError
	}

	user, err := b.Auth.SignUp(ctx, email, c.password)
	if err != nil {
		return report(ctx, cfg, errOut, "register", err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "registered and logged in as %s\n", user.Email)
	}
	return exitcode.Success
}

package commands

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestPrompter_SecretFromTerminal(t *testing.T) {
	var errOut bytes.Buffer
	p := newPrompter(strings.NewReader("alice@example.com\n"), &errOut)
	p.readSecret = func() ([]byte, error) { return []byte("secret"), nil }

	var email, password string
	if err := p.fill("Email", &email); err != nil {
		t.Fatal(err)
	}
	if err := p.secret("Password", &password); err != nil {
		t.Fatal(err)
	}

	if email != "alice@example.com" || password != "secret" {
		t.Errorf("got email %q password %q", email, password)
	}
	if got := errOut.String(); got != "Email: Password: \n" {
		t.Errorf("unexpected prompts %q", got)
	}
}

func TestPrompter_SecretFromPipe(t *testing.T) {
	var errOut bytes.Buffer
	p := newPrompter(strings.NewReader("secret\n"), &errOut)
	if p.readSecret != nil {
		t.Fatal("piped input should not read from the terminal")
	}

	var password string
	if err := p.secret("Password", &password); err != nil {
		t.Fatal(err)
	}
	if password != "secret" {
		t.Errorf("expected secret, got %q", password)
	}
	if got := errOut.String(); got != "Password: " {
		t.Errorf("unexpected prompts %q", got)
	}
}

func TestPrompter_SecretKeepsFlagValue(t *testing.T) {
	var errOut bytes.Buffer
	p := newPrompter(strings.NewReader(""), &errOut)
	p.readSecret = func() ([]byte, error) { return nil, errors.New("should not be called") }

	password := "from-flag"
	if err := p.secret("Password", &password); err != nil {
		t.Fatal(err)
	}
	if password != "from-flag" || errOut.Len() != 0 {
		t.Errorf("expected flag value kept without prompting, got %q %q", password, errOut.String())
	}
}

func TestPrompter_SecretReadError(t *testing.T) {
	var errOut bytes.Buffer
	p := newPrompter(strings.NewReader(""), &errOut)
	p.readSecret = func() ([]byte, error) { return nil, errors.New("interrupted") }

	var password string
	if err := p.secret("Password", &password); err == nil {
		t.Fatal("expected error")
	}
	if password != "" {
		t.Errorf("expected empty password, got %q", password)
	}
}

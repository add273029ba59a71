// Package credentials keeps the password of the HTTP contact source in the
// operating system keyring.
package credentials

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/tartampluch/birthday-liberator/internal/config"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

// ErrNotTerminal is returned when a password prompt has no terminal to read from.
var ErrNotTerminal = errors.New(config.ErrNotTerminal)

// Store saves the password of user under the application's keyring service.
func Store(user, pass string) error {
	if user == "" {
		return errors.New(config.ErrUserRequired)
	}
	if err := keyring.Set(config.KeyringService, user, pass); err != nil {
		return fmt.Errorf("%s: %w", config.ErrKeyringSet, err)
	}
	return nil
}

// Lookup returns the stored password of user. A missing entry or an
// unavailable keyring yields an empty password: the source may not need one.
func Lookup(user string) string {
	if user == "" {
		return ""
	}
	pass, err := keyring.Get(config.KeyringService, user)
	if err != nil {
		slog.Debug(config.MsgPassFail,
			config.LogKeyUser, user,
			config.LogKeyError, err,
			config.LogKeyComponent, config.CompKeyring)
		return ""
	}
	return pass
}

// Forget removes the stored password of user. Removing an absent entry is not an error.
func Forget(user string) error {
	err := keyring.Delete(config.KeyringService, user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%s: %w", config.ErrKeyringDelete, err)
	}
	return nil
}

// Prompter reads a password from a terminal without echoing it.
type Prompter struct {
	In  *os.File
	Out io.Writer

	// Terminal hooks, replaced in tests.
	IsTerminal   func(fd int) bool
	ReadPassword func(fd int) ([]byte, error)
}

// NewPrompter returns a prompter on stdin that writes its prompt to stderr.
func NewPrompter() *Prompter {
	return &Prompter{
		In:           os.Stdin,
		Out:          os.Stderr,
		IsTerminal:   term.IsTerminal,
		ReadPassword: term.ReadPassword,
	}
}

// Prompt asks for the password of user.
func (p *Prompter) Prompt(user string) (string, error) {
	fd := int(p.In.Fd())
	if !p.IsTerminal(fd) {
		return "", ErrNotTerminal
	}

	_, _ = fmt.Fprintf(p.Out, config.MsgPassPrompt, user)
	pass, err := p.ReadPassword(fd)
	_, _ = fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrPasswordPrompt, err)
	}
	return strings.TrimRight(string(pass), "\r\n"), nil
}

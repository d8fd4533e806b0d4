package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Iron-Ham/mindnode/internal/board"
	"github.com/Iron-Ham/mindnode/internal/errors"
	"github.com/Iron-Ham/mindnode/internal/model"
)

var passwordFlag string

// readPassword reads a password from the terminal without echo. It is a
// variable so tests can replace it.
var readPassword = func(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.ErrBoardLocked
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// unlock checks access to a locked board using --password, or a hidden
// prompt when stdin is a terminal.
func unlock(cmd *cobra.Command, store *board.Store, b model.Board) error {
	if !b.IsLocked() {
		return nil
	}
	pw := passwordFlag
	if pw == "" {
		var err error
		pw, err = readPassword(cmd, fmt.Sprintf("Password for %q: ", b.Name))
		if err != nil {
			return err
		}
	}
	return store.Unlock(b.ID, pw)
}

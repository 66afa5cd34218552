package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"golang.org/x/term"
)

// test seams for the terminal
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var errNoInput = errors.New("no input")

// readLine reads one line from stdin. A last line without a newline is
// returned as is.
func (a *App) readLine() (string, error) {
	line, err := a.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errNoInput
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// GetPassword prompts on stderr and reads a password without echo from a
// terminal, or one line from piped input. Surrounding spaces are kept.
func (a *App) GetPassword(prompt string) (string, error) {
	if a.fd >= 0 && isTerminal(a.fd) {
		fmt.Fprint(a.errOut, prompt+": ")
		pw, err := readPassword(a.fd)
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", err
		}
		defer common.WipeByteArray(pw)
		return string(pw), nil
	}
	return a.readLine()
}

// GetNewPassword asks twice on a terminal. Piped input is read once.
func (a *App) GetNewPassword(prompt string) (string, error) {
	pw, err := a.GetPassword(prompt)
	if err != nil {
		return "", err
	}
	if pw == "" {
		return "", fmt.Errorf("%w: empty password", common.ErrorValidation)
	}
	if a.fd < 0 || !isTerminal(a.fd) {
		return pw, nil
	}

	again, err := a.GetPassword("Repeat password")
	if err != nil {
		return "", err
	}
	if again != pw {
		return "", fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}
	return pw, nil
}

package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"plantmanager/internal/storage"
)

// ErrNoTerminal is returned when a passphrase is needed, PLANTMANAGER_PASSPHRASE
// is unset and stdin is not a terminal.
var ErrNoTerminal = errors.New("passphrase required: set " + EnvPassphrase + " or run interactively")

// PassphrasePrompt returns a storage.PassphraseFunc that reads
// PLANTMANAGER_PASSPHRASE, or prompts on the terminal behind in.
func PassphrasePrompt(in *os.File, out io.Writer) storage.PassphraseFunc {
	return func() (string, error) {
		if p := os.Getenv(EnvPassphrase); p != "" {
			return p, nil
		}
		return readPassword(in, out, "Passphrase: ")
	}
}

// ReadNewPassphrase asks for a new passphrase twice and checks that both
// entries match. PLANTMANAGER_PASSPHRASE is used as-is when set.
func ReadNewPassphrase(in *os.File, out io.Writer) (string, error) {
	if p := os.Getenv(EnvPassphrase); p != "" {
		return p, nil
	}

	first, err := readPassword(in, out, "New passphrase: ")
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", errors.New("passphrase must not be empty")
	}
	second, err := readPassword(in, out, "Repeat passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}

func readPassword(in *os.File, out io.Writer, prompt string) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoTerminal
	}

	fmt.Fprint(out, prompt)
	p, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(p), nil
}

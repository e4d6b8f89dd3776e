/*
Package input reads user input (like wallet passwords) from the terminal.
*/
package input

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Terminal is a terminal used for input. If nil, /dev/tty (or stdin if
// there is no terminal) is used.
var Terminal *term.Terminal

// ReadLine reads line from the input without trailing '\n'.
func ReadLine(prompt string) (string, error) {
	if Terminal != nil {
		_, err := Terminal.Write([]byte(prompt))
		if err != nil {
			return "", err
		}
		raw, err := Terminal.ReadLine()
		return strings.TrimRight(raw, "\n"), err
	}
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

// ReadPassword reads user password with prompt without echoing it.
func ReadPassword(prompt string) (string, error) {
	if Terminal != nil {
		return Terminal.ReadPassword(prompt)
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ReadLine(prompt)
	}
	return readSecurePassword(prompt)
}

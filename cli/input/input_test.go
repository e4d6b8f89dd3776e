package input

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

type readWriter struct {
	io.Reader
	io.Writer
}

func newTestTerminal(t *testing.T, in string) {
	pr, pw := io.Pipe()
	go func() {
		_, _ = pw.Write([]byte(in))
	}()
	Terminal = term.NewTerminal(readWriter{pr, io.Discard}, "")
	t.Cleanup(func() {
		Terminal = nil
		_ = pw.Close()
	})
}

func TestReadLine(t *testing.T) {
	newTestTerminal(t, "NbrUYaZgyhSkNoRo9ugRyEMdUZxrhkNaWB\r")
	s, err := ReadLine("address > ")
	require.NoError(t, err)
	require.Equal(t, "NbrUYaZgyhSkNoRo9ugRyEMdUZxrhkNaWB", s)
}

func TestReadPassword(t *testing.T) {
	newTestTerminal(t, "one\r")
	s, err := ReadPassword("password > ")
	require.NoError(t, err)
	require.Equal(t, "one", s)
}

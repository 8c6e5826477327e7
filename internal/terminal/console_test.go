package terminal

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_ReadLine(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader("Flee\r\n  2 \nlast"), &out, Options{})

	line, err := c.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "Flee", line)

	line, err = c.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "  2 ", line)

	line, err = c.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "last", line)

	_, err = c.ReadLine("> ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "> > > > ", out.String())
}

func TestConsole_PlainOutputWithoutTTY(t *testing.T) {
	var out bytes.Buffer
	c := NewConsole(strings.NewReader(""), &out, Options{})

	c.Println(c.Styles().Outcome.Render("Outcome: Late"))
	c.Clear()
	c.Println(c.Styles().Option.Render("1) Apologize"))

	// Вне терминала нет ни ANSI-последовательностей, ни очистки экрана
	assert.NotContains(t, out.String(), "\x1b[")
	assert.Equal(t, "Outcome: Late\n\n1) Apologize\n", out.String())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	assert.False(t, isTerminal(f))

	prev := terminalDetector
	t.Cleanup(func() { terminalDetector = prev })
	terminalDetector = func(uintptr) bool { return true }
	assert.True(t, isTerminal(f))
}

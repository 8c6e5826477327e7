package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Styles - оформление блоков хода.
type Styles struct {
	Title     lipgloss.Style
	Outcome   lipgloss.Style
	Situation lipgloss.Style
	Option    lipgloss.Style
	Warning   lipgloss.Style
	Muted     lipgloss.Style
}

// Options управляет выводом в терминал.
type Options struct {
	NoColor bool
}

// Console - ввод построчно и форматированный вывод.
type Console struct {
	reader   *bufio.Reader
	out      io.Writer
	termOut  *termenv.Output
	isTTY    bool
	renderer *lipgloss.Renderer
	styles   Styles
}

// terminalDetector подменяется в тестах.
var terminalDetector = func(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func isTerminal(w io.Writer) bool {
	type fdWriter interface {
		Fd() uintptr
	}
	if fw, ok := w.(fdWriter); ok {
		return terminalDetector(fw.Fd())
	}
	return false
}

// NewConsole создает консоль поверх произвольных reader/writer.
// Цвет и очистка экрана включаются только для настоящего терминала.
func NewConsole(in io.Reader, out io.Writer, opts Options) *Console {
	tty := isTerminal(out)
	renderer := lipgloss.NewRenderer(out)
	if !tty || opts.NoColor {
		renderer.SetColorProfile(termenv.Ascii)
	} else if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
		renderer.SetColorProfile(termenv.Ascii)
	}

	return &Console{
		reader:   bufio.NewReader(in),
		out:      out,
		termOut:  termenv.NewOutput(out),
		isTTY:    tty,
		renderer: renderer,
		styles:   newStyles(renderer),
	}
}

func newStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:     r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#5A3FC0", Dark: "#B9A6FF"}),
		Outcome:   r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1B7F3B", Dark: "#7EE2A0"}),
		Situation: r.NewStyle().Bold(true),
		Option:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0B5CAD", Dark: "#7CC4FF"}),
		Warning:   r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}),
		Muted:     r.NewStyle().Faint(true),
	}
}

// Styles возвращает стили консоли.
func (c *Console) Styles() Styles { return c.styles }

// ReadLine печатает приглашение и читает одну строку без перевода строки.
// Последняя строка без '\n' возвращается как обычная, io.EOF только на пустом хвосте.
func (c *Console) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(c.out, prompt)
	}
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Println пишет строку в вывод.
func (c *Console) Println(a ...any) {
	fmt.Fprintln(c.out, a...)
}

// Clear очищает экран. Вне терминала просто отделяет блоки пустой строкой.
func (c *Console) Clear() {
	if c.isTTY {
		c.termOut.ClearScreen()
		return
	}
	fmt.Fprintln(c.out)
}

package history

import (
	"strings"
)

// DefaultMaxLines - сколько строк истории передается модели по умолчанию.
const DefaultMaxLines = 15

// Buffer - ограниченный журнал строк истории. Старые строки отбрасываются
// при превышении maxLines, порядок оставшихся не меняется.
// Buffer не потокобезопасен: им владеет одна игровая сессия.
type Buffer struct {
	lines    []string
	maxLines int
}

// NewBuffer создает буфер на maxLines строк и кладет в него seed.
func NewBuffer(maxLines int, seed ...string) *Buffer {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	b := &Buffer{maxLines: maxLines}
	b.Append(seed...)
	return b
}

// Append добавляет строки в конец и сразу обрезает буфер.
// Многострочный текст разбивается по строкам, пустые строки пропускаются.
func (b *Buffer) Append(entries ...string) {
	for _, entry := range entries {
		for _, line := range splitLines(entry) {
			b.lines = append(b.lines, line)
		}
	}
	b.Trim()
}

// AppendChoice записывает выбор игрока строкой "Choice: X".
func (b *Buffer) AppendChoice(choice string) {
	b.Append("Choice: " + choice)
}

// Trim оставляет не больше maxLines самых свежих строк.
func (b *Buffer) Trim() {
	if len(b.lines) <= b.maxLines {
		return
	}
	drop := len(b.lines) - b.maxLines
	kept := make([]string, b.maxLines)
	copy(kept, b.lines[drop:])
	b.lines = kept
}

// Len возвращает число строк.
func (b *Buffer) Len() int { return len(b.lines) }

// MaxLines возвращает лимит буфера.
func (b *Buffer) MaxLines() int { return b.maxLines }

// Lines возвращает копию строк в порядке добавления.
func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// String склеивает историю через перевод строки. Это контекст для промпта.
func (b *Buffer) String() string {
	return strings.Join(b.lines, "\n")
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

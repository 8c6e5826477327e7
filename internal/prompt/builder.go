package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	// TemplateFile - имя файла шаблона в PROMPTS_DIR.
	TemplateFile = "adventure.md"
	// HistoryPlaceholder заменяется на текст истории.
	HistoryPlaceholder = "{{HISTORY}}"

	historyHeader = "Story so far:"
)

//go:embed templates/adventure.md
var defaultTemplate string

// ErrEmptyTemplate - шаблон из файла пуст.
var ErrEmptyTemplate = errors.New("prompt template is empty")

// Request - запрос на генерацию: инструкции и контекст истории.
type Request struct {
	Instructions string
	Context      string
}

// Text возвращает итоговый текст промпта для модели.
func (r Request) Text() string {
	if strings.Contains(r.Instructions, HistoryPlaceholder) {
		return strings.Replace(r.Instructions, HistoryPlaceholder, r.Context, 1)
	}
	return strings.TrimRight(r.Instructions, "\n") + "\n\n" + historyHeader + "\n" + r.Context + "\n"
}

// Builder собирает промпт из фиксированных правил и истории.
type Builder struct {
	template string
}

// NewBuilder создает Builder со встроенным шаблоном.
func NewBuilder() *Builder {
	return &Builder{template: defaultTemplate}
}

// NewBuilderFromTemplate создает Builder с произвольным шаблоном.
func NewBuilderFromTemplate(template string) (*Builder, error) {
	if strings.TrimSpace(template) == "" {
		return nil, ErrEmptyTemplate
	}
	return &Builder{template: template}, nil
}

// LoadBuilder берет шаблон из promptsDir/adventure.md, если файл есть,
// иначе использует встроенный.
func LoadBuilder(promptsDir string, logger *zap.Logger) (*Builder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("PromptBuilder")
	if promptsDir == "" {
		log.Debug("PROMPTS_DIR not set, using embedded template")
		return NewBuilder(), nil
	}

	path := filepath.Join(promptsDir, TemplateFile)
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("Prompt template not found, using embedded template", zap.String("file", path))
			return NewBuilder(), nil
		}
		return nil, fmt.Errorf("failed to read prompt file %s: %w", path, err)
	}

	b, err := NewBuilderFromTemplate(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}
	log.Info("Prompt template loaded", zap.String("file", path), zap.Int("bytes", len(content)))
	return b, nil
}

// Build собирает Request. История не изменяется.
func (b *Builder) Build(history string) Request {
	return Request{
		Instructions: b.template,
		Context:      strings.TrimSpace(history),
	}
}

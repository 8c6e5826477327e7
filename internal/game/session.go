package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"word-adventure/internal/domain"
	"word-adventure/internal/history"
	"word-adventure/internal/prompt"
	"word-adventure/internal/schemas"
	"word-adventure/internal/terminal"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// State - состояние игрового цикла.
type State int

const (
	StateAwaitingChoice State = iota
	StateGenerating
	StateDisplaying
	StateQuit
)

func (s State) String() string {
	switch s {
	case StateAwaitingChoice:
		return "awaiting_choice"
	case StateGenerating:
		return "generating"
	case StateDisplaying:
		return "displaying"
	case StateQuit:
		return "quit"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// SeedLines - начальная история каждой сессии.
var SeedLines = []string{
	"Situation: Alarm",
	"Options: Snooze | Wake",
}

// Generator генерирует сырой текст хода по промпту.
type Generator interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// Console - терминал, с которым работает сессия.
type Console interface {
	ReadLine(prompt string) (string, error)
	Println(a ...any)
	Clear()
	Styles() terminal.Styles
}

// Sleeper блокирует на d или до отмены ctx.
type Sleeper func(ctx context.Context, d time.Duration)

// ContextSleep - Sleeper на таймере.
func ContextSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Config - параметры сессии.
type Config struct {
	MaxHistoryLines int
	DisplayDelay    time.Duration
	StrictChoices   bool
}

// Option настраивает Session.
type Option func(*Session)

// WithSleeper подменяет ожидание после показа исхода.
func WithSleeper(sleep Sleeper) Option {
	return func(s *Session) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// Session - одна игра от приветствия до выхода.
// Владеет историей, все переходы выполняются в одной горутине.
type Session struct {
	id        string
	state     State
	history   *history.Buffer
	builder   *prompt.Builder
	generator Generator
	console   Console
	sleep     Sleeper
	cfg       Config
	logger    *zap.Logger

	current domain.Turn
	pending string
	raw     string
	journey []string
	err     error
}

// NewSession создает сессию в состоянии AwaitingChoice с начальной историей.
func NewSession(builder *prompt.Builder, generator Generator, console Console, cfg Config, logger *zap.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if builder == nil {
		builder = prompt.NewBuilder()
	}
	id := uuid.New().String()
	s := &Session{
		id:        id,
		state:     StateAwaitingChoice,
		history:   history.NewBuffer(cfg.MaxHistoryLines, SeedLines...),
		builder:   builder,
		generator: generator,
		console:   console,
		sleep:     ContextSleep,
		cfg:       cfg,
		logger:    logger.Named("Session").With(zap.String("session_id", id)),
		current:   schemas.ParseTurnPlain(strings.Join(SeedLines, "\n")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID возвращает идентификатор сессии для логов.
func (s *Session) ID() string { return s.id }

// State возвращает текущее состояние.
func (s *Session) State() State { return s.state }

// HistoryLines возвращает копию текущей истории.
func (s *Session) HistoryLines() []string { return s.history.Lines() }

// Journey возвращает выборы, на которые модель ответила ходом, в порядке ввода.
func (s *Session) Journey() []string {
	out := make([]string, len(s.journey))
	copy(out, s.journey)
	return out
}

// Run крутит цикл до выхода. Возвращает nil при quit/exit и конце ввода,
// ошибку генерации, если не ответили оба бэкенда.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("Сессия начата",
		zap.Int("max_history_lines", s.history.MaxLines()),
		zap.Duration("display_delay", s.cfg.DisplayDelay),
		zap.Bool("strict_choices", s.cfg.StrictChoices),
	)
	s.showWelcome()

	for {
		switch s.state {
		case StateAwaitingChoice:
			s.awaitChoice()
		case StateGenerating:
			s.generate(ctx)
		case StateDisplaying:
			s.display(ctx)
		case StateQuit:
			s.showFarewell()
			s.logger.Info("Сессия завершена", zap.Int("choices", len(s.journey)), zap.Error(s.err))
			return s.err
		default:
			s.err = fmt.Errorf("неизвестное состояние сессии: %s", s.state)
			s.transition(StateQuit)
		}
	}
}

func (s *Session) transition(next State) {
	s.logger.Debug("Переход состояния", zap.Stringer("from", s.state), zap.Stringer("to", next))
	s.state = next
}

func (s *Session) awaitChoice() {
	line, err := s.console.ReadLine(choicePrompt)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = fmt.Errorf("ошибка чтения ввода: %w", err)
		} else {
			s.logger.Debug("Ввод закончился, выходим")
		}
		s.transition(StateQuit)
		return
	}

	input := strings.TrimSpace(line)
	if isQuitCommand(input) {
		s.transition(StateQuit)
		return
	}

	choice, ok := s.resolveChoice(input)
	if !ok {
		s.showInvalidChoice()
		return
	}
	s.pending = choice
	s.transition(StateGenerating)
}

func (s *Session) generate(ctx context.Context) {
	s.history.AppendChoice(s.pending)

	req := s.builder.Build(s.history.String())
	text, err := s.generator.Invoke(ctx, req.Text())
	if err != nil {
		s.showGenerationError(err)
		s.err = err
		s.transition(StateQuit)
		return
	}

	// В путь попадают только выборы, на которые пришел ход
	s.journey = append(s.journey, s.pending)
	s.raw = text
	s.current = schemas.ParseTurnPlain(text)
	if s.current.Degraded() {
		s.logger.Warn("Ответ модели неполный", zap.String("raw", text))
	}
	s.transition(StateDisplaying)
}

func (s *Session) display(ctx context.Context) {
	s.showOutcome(s.current)
	s.sleep(ctx, s.cfg.DisplayDelay)
	s.console.Clear()
	s.showTurn(s.current, s.raw)

	s.history.Append(strings.TrimSpace(s.raw))
	s.raw = ""
	s.transition(StateAwaitingChoice)
}

// resolveChoice превращает ввод в выбор: номер варианта или само слово.
func (s *Session) resolveChoice(input string) (string, bool) {
	if input == "" {
		return "", false
	}
	options := s.current.Options()
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(options) {
		return normalizeChoice(options[n-1]), true
	}

	choice := normalizeChoice(input)
	if !s.cfg.StrictChoices || len(options) == 0 {
		return choice, true
	}
	for _, opt := range options {
		if strings.EqualFold(opt, choice) {
			return normalizeChoice(opt), true
		}
	}
	return "", false
}

func isQuitCommand(input string) bool {
	return strings.EqualFold(input, "quit") || strings.EqualFold(input, "exit")
}

// normalizeChoice: первая буква заглавная, остальные строчные.
func normalizeChoice(input string) string {
	lower := cases.Lower(language.Und).String(strings.TrimSpace(input))
	if lower == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(lower)
	return cases.Upper(language.Und).String(string(first)) + lower[size:]
}

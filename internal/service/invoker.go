package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrGenerationFailed - оба бэкенда не смогли сгенерировать ход.
var ErrGenerationFailed = errors.New("generation failed on primary and fallback backends")

// GenerationError - фатальная ошибка генерации с причинами от обоих бэкендов.
type GenerationError struct {
	Primary  error
	Fallback error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%v (primary: %v; fallback: %v)", ErrGenerationFailed, e.Primary, e.Fallback)
}

// Unwrap позволяет errors.Is находить ErrGenerationFailed и исходные ошибки.
func (e *GenerationError) Unwrap() []error {
	return []error{ErrGenerationFailed, e.Primary, e.Fallback}
}

// Result - результат одной попытки: Success(text) или Failure(reason).
type Result struct {
	text string
	err  error
}

// Success создает успешный результат.
func Success(text string) Result { return Result{text: text} }

// Failure создает неуспешный результат. nil превращается в ErrAIGenerationFailed.
func Failure(reason error) Result {
	if reason == nil {
		reason = ErrAIGenerationFailed
	}
	return Result{err: reason}
}

// Ok сообщает, что попытка удалась.
func (r Result) Ok() bool { return r.err == nil }

// Text возвращает текст успешной попытки.
func (r Result) Text() string { return r.text }

// Err возвращает причину неудачи.
func (r Result) Err() error { return r.err }

// Backend - именованный клиент генерации.
type Backend struct {
	Name   string
	Client AIClient
}

// Invoker вызывает основной бэкенд и один раз запасной при неудаче.
// Повторов сверх этого нет, задержек между попытками тоже.
type Invoker struct {
	primary  Backend
	fallback Backend
	params   GenerationParams
	logger   *zap.Logger
}

// NewInvoker создает Invoker. Параметры сэмплирования фиксированы на всю сессию.
func NewInvoker(primary, fallback Backend, params GenerationParams, logger *zap.Logger) (*Invoker, error) {
	if primary.Client == nil || fallback.Client == nil {
		return nil, errors.New("invoker requires both primary and fallback clients")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invoker{
		primary:  primary,
		fallback: fallback,
		params:   params,
		logger:   logger.Named("Invoker"),
	}, nil
}

// Invoke генерирует текст хода. Возвращает *GenerationError, только если упали оба бэкенда.
func (i *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	first := i.attempt(ctx, i.primary, prompt)
	if first.Ok() {
		return first.Text(), nil
	}

	i.logger.Warn("Основной бэкенд недоступен, пробуем запасной",
		zap.String("primary", i.primary.Name),
		zap.String("fallback", i.fallback.Name),
		zap.Error(first.Err()),
	)
	generationFallbacksTotal.Inc()

	second := i.attempt(ctx, i.fallback, prompt)
	if second.Ok() {
		return second.Text(), nil
	}

	generationFailuresTotal.Inc()
	i.logger.Error("Оба бэкенда не смогли сгенерировать ход",
		zap.NamedError("primary_error", first.Err()),
		zap.NamedError("fallback_error", second.Err()),
	)
	return "", &GenerationError{Primary: first.Err(), Fallback: second.Err()}
}

func (i *Invoker) attempt(ctx context.Context, b Backend, prompt string) Result {
	startTime := time.Now()
	text, usage, err := b.Client.GenerateText(ctx, prompt, i.params)
	if err != nil {
		return Failure(err)
	}
	i.logger.Debug("Ход сгенерирован",
		zap.String("backend", b.Name),
		zap.String("model", b.Client.Model()),
		zap.Duration("duration", time.Since(startTime)),
		zap.Int("total_tokens", usage.TotalTokens),
	)
	return Success(text)
}

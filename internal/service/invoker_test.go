package service_test

import (
	"context"
	"errors"
	"testing"

	"word-adventure/internal/mocks"
	"word-adventure/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testPrompt   = "Story so far:\nSituation: Alarm"
	fallbackText = "Outcome: Safe\nSituation: Camp\nOptions: Rest | Move"
)

func newTestInvoker(t *testing.T, primary, fallback *mocks.MockAIClient, params service.GenerationParams) *service.Invoker {
	t.Helper()
	primary.On("Model").Return("primary-model").Maybe()
	fallback.On("Model").Return("fallback-model").Maybe()

	inv, err := service.NewInvoker(
		service.Backend{Name: "primary", Client: primary},
		service.Backend{Name: "fallback", Client: fallback},
		params,
		zap.NewNop(),
	)
	require.NoError(t, err)
	return inv
}

func TestInvoker_PrimarySucceeds(t *testing.T) {
	primary := mocks.NewMockAIClient(t)
	fallback := mocks.NewMockAIClient(t)
	inv := newTestInvoker(t, primary, fallback, service.GenerationParams{})

	primary.On("GenerateText", mock.Anything, testPrompt, mock.Anything).
		Return("Outcome: Late", service.UsageInfo{TotalTokens: 12}, nil).Once()

	text, err := inv.Invoke(context.Background(), testPrompt)
	require.NoError(t, err)
	assert.Equal(t, "Outcome: Late", text)
	fallback.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoker_FallbackAfterPrimaryFailure(t *testing.T) {
	temperature := 0.9
	params := service.GenerationParams{Temperature: &temperature}

	primary := mocks.NewMockAIClient(t)
	fallback := mocks.NewMockAIClient(t)
	inv := newTestInvoker(t, primary, fallback, params)

	primary.On("GenerateText", mock.Anything, testPrompt, params).
		Return("", service.UsageInfo{}, errors.New("503 service unavailable")).Once()
	// Тот же промпт и те же параметры сэмплирования
	fallback.On("GenerateText", mock.Anything, testPrompt, params).
		Return(fallbackText, service.UsageInfo{}, nil).Once()

	text, err := inv.Invoke(context.Background(), testPrompt)
	require.NoError(t, err)
	assert.Equal(t, fallbackText, text)
}

func TestInvoker_BothFail(t *testing.T) {
	primaryErr := errors.New("timeout")
	fallbackErr := errors.New("rate limited")

	primary := mocks.NewMockAIClient(t)
	fallback := mocks.NewMockAIClient(t)
	inv := newTestInvoker(t, primary, fallback, service.GenerationParams{})

	primary.On("GenerateText", mock.Anything, testPrompt, mock.Anything).
		Return("", service.UsageInfo{}, primaryErr).Once()
	fallback.On("GenerateText", mock.Anything, testPrompt, mock.Anything).
		Return("", service.UsageInfo{}, fallbackErr).Once()

	text, err := inv.Invoke(context.Background(), testPrompt)
	assert.Empty(t, text)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrGenerationFailed)
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, fallbackErr)

	var genErr *service.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, primaryErr, genErr.Primary)
	assert.Equal(t, fallbackErr, genErr.Fallback)
}

func TestInvoker_EveryTurnStartsAtPrimary(t *testing.T) {
	primary := mocks.NewMockAIClient(t)
	fallback := mocks.NewMockAIClient(t)
	inv := newTestInvoker(t, primary, fallback, service.GenerationParams{})

	primary.On("GenerateText", mock.Anything, testPrompt, mock.Anything).
		Return("", service.UsageInfo{}, errors.New("down")).Once()
	fallback.On("GenerateText", mock.Anything, testPrompt, mock.Anything).
		Return(fallbackText, service.UsageInfo{}, nil).Once()
	primary.On("GenerateText", mock.Anything, testPrompt, mock.Anything).
		Return("Outcome: Back", service.UsageInfo{}, nil).Once()

	_, err := inv.Invoke(context.Background(), testPrompt)
	require.NoError(t, err)

	text, err := inv.Invoke(context.Background(), testPrompt)
	require.NoError(t, err)
	assert.Equal(t, "Outcome: Back", text)
}

func TestNewInvoker_RequiresClients(t *testing.T) {
	_, err := service.NewInvoker(service.Backend{Name: "primary"}, service.Backend{Name: "fallback"}, service.GenerationParams{}, nil)
	assert.Error(t, err)
}

func TestResult(t *testing.T) {
	ok := service.Success("text")
	assert.True(t, ok.Ok())
	assert.Equal(t, "text", ok.Text())
	assert.NoError(t, ok.Err())

	failed := service.Failure(nil)
	assert.False(t, failed.Ok())
	assert.ErrorIs(t, failed.Err(), service.ErrAIGenerationFailed)
}

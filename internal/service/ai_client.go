package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"word-adventure/internal/config"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrAIGenerationFailed - ошибка одного бэкенда генерации.
var ErrAIGenerationFailed = errors.New("ошибка генерации текста AI")

// GenerationParams - параметры сэмплирования. Указатели отличают 0 от "не задано".
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

// UsageInfo содержит информацию об использовании токенов.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Estimated        bool // посчитано через tiktoken, а не получено от API
}

// AIClient интерфейс бэкенда генерации.
type AIClient interface {
	// GenerateText отправляет промпт и возвращает сырой текст ответа.
	GenerateText(ctx context.Context, prompt string, params GenerationParams) (string, UsageInfo, error)
	// Model возвращает имя модели для логов и метрик.
	Model() string
}

// --- OpenAI-compatible client ---

// openAIClient реализует AIClient через go-openai (Groq, OpenRouter, OpenAI).
type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func (c *openAIClient) Model() string { return c.model }

// GenerateText генерирует текст одним user-сообщением.
func (c *openAIClient) GenerateText(ctx context.Context, prompt string, params GenerationParams) (string, UsageInfo, error) {
	usageInfo := UsageInfo{}
	labels := prometheus.Labels{"provider": config.ProviderOpenAI, "model": c.model}

	if strings.TrimSpace(prompt) == "" {
		aiRequestsTotal.With(withStatus(labels, "error")).Inc()
		return "", usageInfo, fmt.Errorf("%w: промпт пуст", ErrAIGenerationFailed)
	}

	req := openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperatureVal(params.Temperature),
		MaxTokens:   intVal(params.MaxTokens),
		TopP:        float32Val(params.TopP),
	}

	startTime := time.Now()
	c.logger.Debug("Отправка запроса к AI", zap.String("model", c.model), zap.Int("prompt_bytes", len(prompt)))

	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(startTime)
	if err != nil {
		c.logger.Warn("Ошибка от AI API", zap.String("model", c.model), zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.With(withStatus(labels, "error")).Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.logger.Warn("AI API вернул пустой ответ", zap.String("model", c.model), zap.Duration("duration", duration))
		aiRequestsTotal.With(withStatus(labels, "error_empty_response")).Inc()
		return "", usageInfo, fmt.Errorf("%w: получен пустой ответ", ErrAIGenerationFailed)
	}

	aiRequestsTotal.With(withStatus(labels, "success")).Inc()
	aiRequestDuration.With(labels).Observe(duration.Seconds())

	generatedText := strings.TrimSpace(resp.Choices[0].Message.Content)

	if resp.Usage.TotalTokens > 0 {
		usageInfo.PromptTokens = resp.Usage.PromptTokens
		usageInfo.CompletionTokens = resp.Usage.CompletionTokens
		usageInfo.TotalTokens = resp.Usage.TotalTokens
	} else {
		// Не все OpenAI-совместимые API возвращают usage
		usageInfo = estimateUsage(c.model, prompt, generatedText)
	}
	observeUsage(config.ProviderOpenAI, c.model, usageInfo)

	c.logger.Debug("Ответ от AI API получен",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("response_chars", len(generatedText)),
		zap.Int("prompt_tokens", usageInfo.PromptTokens),
		zap.Int("completion_tokens", usageInfo.CompletionTokens),
		zap.Bool("usage_estimated", usageInfo.Estimated),
	)
	return generatedText, usageInfo, nil
}

// --- Ollama client ---

// ollamaClient реализует AIClient через нативный API Ollama.
type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaClient(cfg config.BackendConfig, logger *zap.Logger) (AIClient, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	// api.NewClient ждет URL без суффикса /v1
	ollamaBaseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	ollamaBaseURL = strings.TrimSuffix(ollamaBaseURL, "/v1")
	if ollamaBaseURL == "" {
		ollamaBaseURL = config.DefaultOllamaBaseURL
	}
	parsedURL, err := url.Parse(ollamaBaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", ollamaBaseURL, err)
	}

	logger.Info("Ollama клиент создан",
		zap.String("base_url", ollamaBaseURL), zap.String("model", cfg.Model), zap.Duration("timeout", cfg.Timeout))

	return &ollamaClient{
		client:  api.NewClient(parsedURL, httpClient),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func (c *ollamaClient) Model() string { return c.model }

// GenerateText генерирует текст через /api/chat без стриминга.
func (c *ollamaClient) GenerateText(ctx context.Context, prompt string, params GenerationParams) (string, UsageInfo, error) {
	usageInfo := UsageInfo{}
	labels := prometheus.Labels{"provider": config.ProviderOllama, "model": c.model}

	if strings.TrimSpace(prompt) == "" {
		aiRequestsTotal.With(withStatus(labels, "error")).Inc()
		return "", usageInfo, fmt.Errorf("%w: промпт пуст", ErrAIGenerationFailed)
	}

	var options map[string]interface{}
	if params.Temperature != nil || params.TopP != nil || intVal(params.MaxTokens) > 0 {
		options = map[string]interface{}{}
	}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	}
	if n := intVal(params.MaxTokens); n > 0 {
		options["num_predict"] = n
	}

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
		Options:  options,
	}

	requestCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		requestCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	c.logger.Debug("Отправка запроса к Ollama", zap.String("model", c.model), zap.Int("prompt_bytes", len(prompt)))

	var resp api.ChatResponse
	var content strings.Builder
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		content.WriteString(r.Message.Content)
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("Таймаут Ollama API", zap.Duration("timeout", c.timeout), zap.Error(err))
		} else {
			c.logger.Warn("Ошибка от Ollama API", zap.Duration("duration", duration), zap.Error(err))
		}
		aiRequestsTotal.With(withStatus(labels, "error")).Inc()
		return "", usageInfo, fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}

	generatedText := strings.TrimSpace(content.String())
	if generatedText == "" {
		c.logger.Warn("Ollama API вернул пустой ответ", zap.Duration("duration", duration))
		aiRequestsTotal.With(withStatus(labels, "error_empty_response")).Inc()
		return "", usageInfo, fmt.Errorf("%w: получен пустой ответ", ErrAIGenerationFailed)
	}

	aiRequestsTotal.With(withStatus(labels, "success")).Inc()
	aiRequestDuration.With(labels).Observe(duration.Seconds())

	usageInfo.PromptTokens = resp.PromptEvalCount
	usageInfo.CompletionTokens = resp.EvalCount
	usageInfo.TotalTokens = resp.PromptEvalCount + resp.EvalCount
	observeUsage(config.ProviderOllama, c.model, usageInfo)

	c.logger.Debug("Ответ от Ollama API получен",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("response_chars", len(generatedText)),
		zap.String("done_reason", resp.DoneReason),
	)
	return generatedText, usageInfo, nil
}

// --- Factory ---

// NewAIClient создает клиент нужного провайдера по настройкам бэкенда.
func NewAIClient(cfg config.BackendConfig, logger *zap.Logger) (AIClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("AIClient").With(zap.String("backend", cfg.Name))

	switch strings.ToLower(cfg.Provider) {
	case config.ProviderOpenAI:
		openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			openaiConfig.BaseURL = cfg.BaseURL
		}
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		logger.Info("OpenAI клиент создан",
			zap.String("base_url", openaiConfig.BaseURL), zap.String("model", cfg.Model), zap.Duration("timeout", cfg.Timeout))
		return &openAIClient{
			client: openaigo.NewClientWithConfig(openaiConfig),
			model:  cfg.Model,
			logger: logger,
		}, nil
	case config.ProviderOllama:
		return newOllamaClient(cfg, logger)
	default:
		return nil, fmt.Errorf("неизвестный тип AI клиента: '%s'", cfg.Provider)
	}
}

// --- helpers ---

func withStatus(labels prometheus.Labels, status string) prometheus.Labels {
	out := prometheus.Labels{"status": status}
	for k, v := range labels {
		out[k] = v
	}
	return out
}

// estimateUsage считает токены через tiktoken. Для не-OpenAI моделей берется cl100k_base,
// это приблизительно, но для метрик достаточно.
func estimateUsage(model, prompt, completion string) UsageInfo {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tke, err = tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
		if err != nil {
			return UsageInfo{}
		}
	}
	promptTokens := len(tke.Encode(prompt, nil, nil))
	completionTokens := len(tke.Encode(completion, nil, nil))
	return UsageInfo{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		Estimated:        true,
	}
}

// temperatureVal: go-openai не сериализует 0 (omitempty), поэтому явный ноль
// отправляется как минимальное положительное значение.
func temperatureVal(f64 *float64) float32 {
	if f64 != nil && *f64 == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32Val(f64)
}

func float32Val(f64 *float64) float32 {
	if f64 == nil {
		return 0 // 0 не сериализуется, API подставит свое значение
	}
	return float32(*f64)
}

func intVal(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

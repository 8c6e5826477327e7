package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Провайдеры генерации.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Адреса по умолчанию, если AI_*_BASE_URL не задан.
const (
	DefaultOpenAIBaseURL = "https://api.groq.com/openai/v1"
	DefaultOllamaBaseURL = "http://127.0.0.1:11434"
)

// ErrInvalidConfig - конфигурация не прошла проверку.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrAPIKeyMissing - ключ API не найден ни в окружении, ни в секретах, ни в терминале.
var ErrAPIKeyMissing = errors.New("AI API key is not provided")

// Config содержит настройки игровой сессии.
type Config struct {
	// Основной бэкенд генерации
	AIPrimaryProvider string `envconfig:"AI_PRIMARY_PROVIDER" default:"openai"`
	AIPrimaryModel    string `envconfig:"AI_PRIMARY_MODEL" default:"llama-3.3-70b-versatile"`
	AIPrimaryBaseURL  string `envconfig:"AI_PRIMARY_BASE_URL"`

	// Запасной бэкенд, попроще и подешевле
	AIFallbackProvider string `envconfig:"AI_FALLBACK_PROVIDER" default:"openai"`
	AIFallbackModel    string `envconfig:"AI_FALLBACK_MODEL" default:"llama-3.1-8b-instant"`
	AIFallbackBaseURL  string `envconfig:"AI_FALLBACK_BASE_URL"`

	AITemperature float64       `envconfig:"AI_TEMPERATURE" default:"0.9"`
	AIMaxTokens   int           `envconfig:"AI_MAX_TOKENS" default:"0"`
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`

	// Секретное поле, читается отдельно
	AIAPIKey string `ignored:"true"`

	// Игра
	MaxHistoryLines int           `envconfig:"MAX_HISTORY_LINES" default:"15"`
	DisplayDelay    time.Duration `envconfig:"DISPLAY_DELAY" default:"3s"`
	StrictChoices   bool          `envconfig:"STRICT_CHOICES" default:"false"`
	PromptsDir      string        `envconfig:"PROMPTS_DIR" default:""`
	SecretsDir      string        `envconfig:"SECRETS_DIR" default:"/run/secrets"`

	// Логи и метрики
	LogLevel    string `envconfig:"LOG_LEVEL" default:"warn"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"console"`
	LogOutput   string `envconfig:"LOG_OUTPUT" default:"stderr"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:""`
}

// BackendConfig - параметры подключения к одному бэкенду.
type BackendConfig struct {
	Name     string
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// Primary возвращает настройки основного бэкенда.
func (c *Config) Primary() BackendConfig {
	return BackendConfig{
		Name:     "primary",
		Provider: c.AIPrimaryProvider,
		Model:    c.AIPrimaryModel,
		BaseURL:  c.AIPrimaryBaseURL,
		APIKey:   c.AIAPIKey,
		Timeout:  c.AITimeout,
	}
}

// Fallback возвращает настройки запасного бэкенда.
func (c *Config) Fallback() BackendConfig {
	return BackendConfig{
		Name:     "fallback",
		Provider: c.AIFallbackProvider,
		Model:    c.AIFallbackModel,
		BaseURL:  c.AIFallbackBaseURL,
		APIKey:   c.AIAPIKey,
		Timeout:  c.AITimeout,
	}
}

// NeedsAPIKey - ключ нужен, если хотя бы один бэкенд ходит в OpenAI-совместимый API.
func (c *Config) NeedsAPIKey() bool {
	return c.AIPrimaryProvider == ProviderOpenAI || c.AIFallbackProvider == ProviderOpenAI
}

// Validate проверяет значения после загрузки.
func (c *Config) Validate() error {
	c.AIPrimaryProvider = strings.ToLower(strings.TrimSpace(c.AIPrimaryProvider))
	c.AIFallbackProvider = strings.ToLower(strings.TrimSpace(c.AIFallbackProvider))

	for name, p := range map[string]string{"AI_PRIMARY_PROVIDER": c.AIPrimaryProvider, "AI_FALLBACK_PROVIDER": c.AIFallbackProvider} {
		if p != ProviderOpenAI && p != ProviderOllama {
			return fmt.Errorf("%w: %s must be '%s' or '%s', got '%s'", ErrInvalidConfig, name, ProviderOpenAI, ProviderOllama, p)
		}
	}
	c.AIPrimaryBaseURL = baseURLOrDefault(c.AIPrimaryBaseURL, c.AIPrimaryProvider)
	c.AIFallbackBaseURL = baseURLOrDefault(c.AIFallbackBaseURL, c.AIFallbackProvider)

	if strings.TrimSpace(c.AIPrimaryModel) == "" || strings.TrimSpace(c.AIFallbackModel) == "" {
		return fmt.Errorf("%w: model names must not be empty", ErrInvalidConfig)
	}
	if c.AITemperature < 0 || c.AITemperature > 2 {
		return fmt.Errorf("%w: AI_TEMPERATURE must be within [0, 2], got %v", ErrInvalidConfig, c.AITemperature)
	}
	if c.AIMaxTokens < 0 {
		return fmt.Errorf("%w: AI_MAX_TOKENS must not be negative", ErrInvalidConfig)
	}
	if c.MaxHistoryLines < 1 {
		return fmt.Errorf("%w: MAX_HISTORY_LINES must be at least 1, got %d", ErrInvalidConfig, c.MaxHistoryLines)
	}
	if c.DisplayDelay < 0 {
		return fmt.Errorf("%w: DISPLAY_DELAY must not be negative", ErrInvalidConfig)
	}
	return nil
}

// baseURLOrDefault подставляет адрес провайдера, если свой не задан.
func baseURLOrDefault(baseURL, provider string) string {
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		return baseURL
	}
	if provider == ProviderOllama {
		return DefaultOllamaBaseURL
	}
	return DefaultOpenAIBaseURL
}

// LoadConfig загружает .env (если есть), переменные окружения и ключ API.
// prompter вызывается, только если ключ не найден в окружении и в секретах; может быть nil.
func LoadConfig(envFilePath string, prompter KeyPrompter) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: could not load %s file: %v", envFilePath, err)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.NeedsAPIKey() {
		key, err := resolveAPIKey(cfg.SecretsDir, prompter)
		if err != nil {
			return nil, err
		}
		cfg.AIAPIKey = key
	}
	return &cfg, nil
}

// resolveAPIKey: AI_API_KEY -> файл секрета ai_api_key -> ввод в терминале.
func resolveAPIKey(secretsDir string, prompter KeyPrompter) (string, error) {
	if key := strings.TrimSpace(os.Getenv("AI_API_KEY")); key != "" {
		return key, nil
	}
	if key, err := ReadSecret(secretsDir, "ai_api_key"); err == nil {
		return key, nil
	}
	if prompter == nil {
		return "", ErrAPIKeyMissing
	}
	key, err := prompter()
	if err != nil {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrAPIKeyMissing
	}
	return key, nil
}

// LogSummary пишет загруженную конфигурацию в лог без секретов.
func (c *Config) LogSummary(logger *zap.Logger) {
	logger.Info("Конфигурация загружена",
		zap.String("primary_provider", c.AIPrimaryProvider),
		zap.String("primary_model", c.AIPrimaryModel),
		zap.String("primary_base_url", c.AIPrimaryBaseURL),
		zap.String("fallback_provider", c.AIFallbackProvider),
		zap.String("fallback_model", c.AIFallbackModel),
		zap.String("fallback_base_url", c.AIFallbackBaseURL),
		zap.Float64("temperature", c.AITemperature),
		zap.Int("max_tokens", c.AIMaxTokens),
		zap.Duration("timeout", c.AITimeout),
		zap.Int("max_history_lines", c.MaxHistoryLines),
		zap.Duration("display_delay", c.DisplayDelay),
		zap.Bool("strict_choices", c.StrictChoices),
		zap.String("prompts_dir", c.PromptsDir),
		zap.String("metrics_addr", c.MetricsAddr),
		zap.String("api_key", MaskSecret(c.AIAPIKey)),
	)
}

// MaskSecret оставляет видимыми только последние 4 символа.
func MaskSecret(secret string) string {
	if secret == "" {
		return "[НЕ ЗАДАН]"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"word-adventure/internal/config"
	"word-adventure/internal/game"
	"word-adventure/internal/prompt"
	"word-adventure/internal/service"
	"word-adventure/internal/terminal"
	"word-adventure/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig(".env", config.TerminalKeyPrompt(os.Stdin, os.Stdout))
	if err != nil {
		log.Printf("Ошибка загрузки конфигурации: %v", err)
		return 1
	}

	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Encoding:   cfg.LogEncoding,
		OutputPath: cfg.LogOutput,
	})
	if err != nil {
		log.Printf("Ошибка инициализации логгера: %v", err)
		return 1
	}
	defer func() { _ = zapLogger.Sync() }()
	cfg.LogSummary(zapLogger)

	primary, err := service.NewAIClient(cfg.Primary(), zapLogger)
	if err != nil {
		zapLogger.Error("Ошибка инициализации основного AI клиента", zap.Error(err))
		return 1
	}
	fallback, err := service.NewAIClient(cfg.Fallback(), zapLogger)
	if err != nil {
		zapLogger.Error("Ошибка инициализации запасного AI клиента", zap.Error(err))
		return 1
	}

	temperature := cfg.AITemperature
	params := service.GenerationParams{Temperature: &temperature}
	if cfg.AIMaxTokens > 0 {
		maxTokens := cfg.AIMaxTokens
		params.MaxTokens = &maxTokens
	}
	invoker, err := service.NewInvoker(
		service.Backend{Name: "primary", Client: primary},
		service.Backend{Name: "fallback", Client: fallback},
		params,
		zapLogger,
	)
	if err != nil {
		zapLogger.Error("Ошибка инициализации Invoker", zap.Error(err))
		return 1
	}

	builder, err := prompt.LoadBuilder(cfg.PromptsDir, zapLogger)
	if err != nil {
		zapLogger.Error("Ошибка загрузки шаблона промпта", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		metricsServer := startMetricsServer(cfg.MetricsAddr, zapLogger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				zapLogger.Warn("Ошибка при остановке HTTP сервера метрик", zap.Error(err))
			}
		}()
	}

	console := terminal.NewConsole(os.Stdin, os.Stdout, terminal.Options{})
	session := game.NewSession(builder, invoker, console, game.Config{
		MaxHistoryLines: cfg.MaxHistoryLines,
		DisplayDelay:    cfg.DisplayDelay,
		StrictChoices:   cfg.StrictChoices,
	}, zapLogger)

	// Чтение stdin не прерывается по сигналу, поэтому сессия крутится в своей горутине
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		zapLogger.Info("Получен сигнал завершения", zap.String("session_id", session.ID()))
		fmt.Fprintln(os.Stdout)
		return 0
	}

	if err != nil {
		if errors.Is(err, service.ErrGenerationFailed) {
			zapLogger.Error("Сессия завершена из-за ошибки генерации", zap.Error(err))
		} else {
			zapLogger.Error("Сессия завершена с ошибкой", zap.Error(err))
		}
		return 1
	}
	return 0
}

// startMetricsServer поднимает /metrics и /health на отдельном адресе.
func startMetricsServer(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", service.MetricsHandler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Запуск HTTP-сервера для метрик", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ошибка HTTP-сервера метрик", zap.Error(err))
		}
	}()
	return server
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"health-assistant/internal/api"
	"health-assistant/internal/common/config"
	"health-assistant/internal/common/database"
	"health-assistant/internal/common/llm"
	"health-assistant/internal/common/logger"
	"health-assistant/internal/common/observability"
	"health-assistant/internal/pipeline"
	extractkeywords "health-assistant/internal/workers/answer/extract-keywords"
	generateanswer "health-assistant/internal/workers/answer/generate-answer"
	normalizeresponse "health-assistant/internal/workers/answer/normalize-response"
	retrievesources "health-assistant/internal/workers/answer/retrieve-sources"
	recordfeedback "health-assistant/internal/workers/feedback/record-feedback"
	"health-assistant/pkg/registry"

	"go.uber.org/zap"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting chat server...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("strategy", cfg.Pipeline.Strategy),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	ctx := context.Background()

	strategy, err := pipeline.ParseStrategy(cfg.Pipeline.Strategy)
	if err != nil {
		zapLog.Fatal("invalid pipeline strategy", zap.Error(err))
	}
	outputMode, err := pipeline.ParseOutputMode(cfg.Pipeline.OutputMode)
	if err != nil {
		zapLog.Fatal("invalid output mode", zap.Error(err))
	}

	trusted, err := registry.TrustedDomains(cfg.Search.RegistryPath)
	if err != nil {
		zapLog.Fatal("trusted domain registry failed", zap.Error(err))
	}
	zapLog.Info("Trusted domains loaded", zap.Int("count", len(trusted)))

	// --- LLM client ---
	gemini, err := llm.NewGemini(ctx, &llm.GeminiConfig{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		MaxRetries: cfg.LLM.MaxRetries,
	}, log)
	if err != nil {
		zapLog.Fatal("gemini client failed", zap.Error(err))
	}

	var checks []api.Check

	// --- Search provider ---
	var retriever *retrievesources.Handler
	var extractor *extractkeywords.Handler
	if strategy.Retrieves() {
		retrieveCfg := &retrievesources.Config{
			Provider:       cfg.Search.Provider,
			BaseURL:        cfg.Search.BaseURL,
			APIKey:         cfg.Search.APIKey,
			Index:          cfg.Search.Index,
			Timeout:        config.GetDuration(cfg.Search.Timeout),
			MaxResults:     cfg.Search.MaxResults,
			TrustedDomains: trusted,
		}

		var provider retrievesources.Provider
		switch cfg.Search.Provider {
		case "elasticsearch":
			var esClient *database.ElasticsearchClient
			err = retryWithBackoff(func() error {
				var err error
				esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
				if err != nil {
					return err
				}
				return esClient.Ping(ctx)
			}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
			if err != nil {
				zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
			}
			zapLog.Info("Elasticsearch connected successfully")

			provider = retrievesources.NewElasticsearchProvider(esClient.Client, cfg.Search.Index)
			checks = append(checks, api.Check{Name: "elasticsearch", Run: esClient.IndexCheck(cfg.Search.Index)})
		default:
			provider = retrievesources.NewSerperProvider(retrieveCfg)
		}

		retriever = retrievesources.NewHandler(retrieveCfg, provider, log)
		extractor = extractkeywords.NewHandler(&extractkeywords.Config{
			Model:          cfg.LLM.ExtractionModel,
			Timeout:        config.GetDuration(cfg.LLM.ExtractionTimeout),
			MaxDomains:     cfg.Pipeline.MaxDomains,
			TrustedDomains: trusted,
		}, gemini, log)
	}

	persona := generateanswer.DefaultPersona()

	generator := generateanswer.NewHandler(&generateanswer.Config{
		Model:           cfg.LLM.Model,
		Timeout:         config.GetDuration(cfg.LLM.Timeout),
		Temperature:     llm.Temperature(float32(cfg.LLM.Temperature)),
		PersonaDelivery: generateanswer.PersonaDelivery(cfg.Pipeline.PersonaDelivery),
		MaxHistoryTurns: cfg.Pipeline.MaxHistoryTurns,
	}, gemini, log)

	normalizeCfg := normalizeresponse.LoadConfig()
	normalizeCfg.Persona = persona
	normalizer := normalizeresponse.NewHandler(normalizeCfg, log)

	chat := pipeline.New(&pipeline.Config{
		Strategy:   strategy,
		OutputMode: outputMode,
		Persona:    persona,
	}, extractor, retriever, generator, normalizer, log)

	// --- Feedback sink: Postgres opened on first use ---
	pg := database.NewLazyPostgres(database.PostgresOpener(cfg.Database.Postgres))
	defer pg.Close()
	checks = append(checks, api.Check{Name: "postgres", Run: func(ctx context.Context) error {
		db, err := pg.Get(ctx)
		if err != nil {
			return err
		}
		return db.PingContext(ctx)
	}})

	var counters *recordfeedback.Counters
	if cfg.Database.Redis.Enabled() {
		redis := database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, rating counters disabled", zap.Error(err))
			_ = redis.Close()
		} else {
			defer redis.Close()
			zapLog.Info("Redis connected successfully")
			counters = recordfeedback.NewCounters(redis.Client, cfg.Feedback.CountersKey)
			checks = append(checks, api.Check{Name: "redis", Run: redis.Ping})
		}
	}

	feedback := recordfeedback.NewHandler(&recordfeedback.Config{
		Table:             cfg.Feedback.Table,
		CountersKey:       cfg.Feedback.CountersKey,
		InsertTimeout:     config.GetDuration(cfg.Feedback.InsertTimeout),
		MaxFeedbackLength: recordfeedback.LoadConfig().MaxFeedbackLength,
	}, recordfeedback.NewPostgresStore(pg, cfg.Feedback.Table), counters, log)

	// --- HTTP server ---
	server := api.NewServer(&api.Config{
		Address:         cfg.Server.Address,
		ReadTimeout:     config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:    config.GetDuration(cfg.Server.WriteTimeout),
		RequestTimeout:  config.GetDuration(cfg.Server.RequestTimeout),
		ShutdownTimeout: config.GetDuration(cfg.Server.ShutdownTimeout),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		BodyLimit:       cfg.Server.BodyLimit,
		Version:         cfg.App.Version,
	}, chat, feedback, checks, obs, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received, stopping server...", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}

	if err := server.Shutdown(context.Background()); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Chat server stopped gracefully")
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/trogers1052/portfolio-advisor/internal/advice"
	"github.com/trogers1052/portfolio-advisor/internal/analysis"
	"github.com/trogers1052/portfolio-advisor/internal/api"
	"github.com/trogers1052/portfolio-advisor/internal/config"
	"github.com/trogers1052/portfolio-advisor/internal/database"
	"github.com/trogers1052/portfolio-advisor/internal/kafka"
	"github.com/trogers1052/portfolio-advisor/internal/metrics"
	"github.com/trogers1052/portfolio-advisor/internal/monitor"
	"github.com/trogers1052/portfolio-advisor/internal/portfolio"
	"github.com/trogers1052/portfolio-advisor/internal/wallet"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// The model is loaded once; the service does not start without it.
	scorer, err := loadScorer(ctx, cfg.Model)
	if err != nil {
		return err
	}
	log.Info().Str("artifact", cfg.Model.Artifact).Str("version", scorer.Version()).Msg("Score model loaded")
	analyzer := analysis.NewAnalyzer(scorer)

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		return err
	}
	if cfg.Portfolio.SeedOnStart {
		if err := seedDemoData(ctx, db, cfg.Portfolio.Owner, log); err != nil {
			return err
		}
	}

	m := metrics.New("portfolio_advisor")

	var publisher portfolio.Publisher
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.PortfolioTopic, cfg.Kafka.AlertTopic)
		defer producer.Close()
		publisher = producer
	}

	svc := portfolio.NewService(db, publisher, cfg.Portfolio.Owner, log)
	log.Info().Str("owner", svc.Owner()).Bool("kafka", cfg.Kafka.Enabled).Msg("Portfolio service ready")
	renderer, assistant := buildAdvice(cfg, log)
	wallets := wallet.NewService(db, assistant, cfg.Portfolio.Owner, log)

	if cfg.Kafka.Enabled {
		consumer := kafka.NewTradeConsumer(cfg.Kafka.Brokers, cfg.Kafka.CommandTopic, cfg.Kafka.GroupID, svc, log)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				log.Error().Err(err).Msg("Trade command consumer stopped")
			}
		}()
	}

	if cfg.Monitor.Enabled {
		opts := []monitor.Option{monitor.WithAnalyzer(analyzer), monitor.WithRecorder(m)}
		if producer != nil {
			opts = append(opts, monitor.WithPublisher(producer))
		}
		sweep := monitor.NewRiskSweep(svc, db, log, opts...)
		scheduler := monitor.NewScheduler(log)
		if err := scheduler.AddJob(cfg.Monitor.Schedule, sweep); err != nil {
			return fmt.Errorf("failed to schedule risk monitor: %w", err)
		}
		// Record today's snapshot without waiting for the first tick.
		scheduler.Start(sweep)
		defer scheduler.Stop()
	}

	handler := api.NewHandler(api.Deps{
		Portfolios: svc,
		Analyzer:   analyzer,
		Alerts:     db,
		Renderer:   renderer,
		Assistant:  assistant,
		Wallet:     wallets,
		DB:         db,
		Metrics:    m,
		Log:        log,
	})
	server := &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           api.SetupRoutes(handler, m, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildAdvice returns nil interfaces when no OpenAI key is configured
func buildAdvice(cfg *config.Config, log zerolog.Logger) (advice.Renderer, advice.Assistant) {
	if cfg.OpenAI.APIKey == "" {
		log.Info().Msg("OPENAI_API_KEY not set, narration and assistant disabled")
		return nil, nil
	}

	provider := advice.NewOpenAIRenderer(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	if cfg.Redis.Addr == "" {
		return provider, provider
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	renderer := advice.NewCachedRenderer(provider, advice.NewRedisCache(client, "advisor:narration:"), cfg.Redis.TTL, log)
	assistant := advice.NewCachedAssistant(provider, advice.NewRedisCache(client, "advisor:assistant:"), cfg.Redis.TTL, log)
	return renderer, assistant
}

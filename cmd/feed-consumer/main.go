package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/guildlog/internal/admin"
	"github.com/example/guildlog/internal/common"
	"github.com/example/guildlog/internal/delivery"
	"github.com/example/guildlog/internal/discord"
	"github.com/example/guildlog/internal/feed"
	"github.com/example/guildlog/internal/normalize"
	"github.com/example/guildlog/internal/pipeline"
	"github.com/example/guildlog/internal/routes"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := common.LoadConfig("feed-consumer")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.DiscordToken == "" {
		log.Fatalf("load config: DISCORD_TOKEN is required")
	}
	// Routes can only be configured through the admin API in this mode.
	if err := cfg.RequireAdminToken(); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := common.NewLogger(cfg.ServiceName, cfg.LogLevel)
	shutdown, err := common.SetupOTel(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise telemetry")
	}
	defer common.ShutdownTelemetry(context.Background(), shutdown)

	metricsSrv := common.StartMetricsServer(cfg.MetricsPort, logger)
	defer metricsSrv.Shutdown(context.Background())

	// REST only; this mode never opens a gateway connection.
	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create platform session")
	}

	store := routes.NewStore()
	deliverer := &delivery.Deliverer{
		Resolver: &discord.Resolver{Session: session, Timeout: cfg.SendTimeout},
		Logger:   logger,
	}
	p := pipeline.New(normalize.New(), routes.Router{Store: store}, deliverer, logger, pipeline.Options{
		Workers:   cfg.DeliveryWorkers,
		QueueSize: cfg.DeliveryQueueSize,
	})

	r := chi.NewRouter()
	r.Handle("/v1/events", (&feed.Server{Pipeline: p, Logger: logger}).Router())
	r.Handle("/v1/tenants/*", admin.NewServer(admin.NewHandler(store, deliverer, logger), cfg.AdminToken, logger).Router())
	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.HTTPPort),
		Handler: r,
	}
	go func() {
		logger.Info().Int("port", cfg.HTTPPort).Msg("feed and admin api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	consumer := &feed.Consumer{
		ReaderFactory: func() feed.Reader {
			return feed.NewKafkaReader(cfg.KafkaBrokers, cfg.ServiceName, cfg.EventsTopic)
		},
		Pipeline: p,
		Logger:   logger,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info().Str("topic", cfg.EventsTopic).Msg("feed consumer started")
		if err := consumer.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("feed consumer stopped")
			cancel()
		}
	}()

	<-ctx.Done()
	<-done
	p.Close()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

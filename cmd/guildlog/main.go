package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

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

	cfg, err := common.LoadConfig("guildlog")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.DiscordToken == "" {
		log.Fatalf("load config: DISCORD_TOKEN is required")
	}

	logger := common.NewLogger(cfg.ServiceName, cfg.LogLevel)
	shutdown, err := common.SetupOTel(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise telemetry")
	}
	defer common.ShutdownTelemetry(context.Background(), shutdown)

	metricsSrv := common.StartMetricsServer(cfg.MetricsPort, logger)
	defer metricsSrv.Shutdown(context.Background())

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

	var sink discord.Submitter = p
	if cfg.PublishEvents {
		writer := feed.NewKafkaWriter(cfg.KafkaBrokers, cfg.EventsTopic)
		defer writer.Close()
		sink = &feed.Publisher{Writer: writer, Next: p, Logger: logger}
	}

	handler := admin.NewHandler(store, deliverer, logger)
	commands := &discord.Commands{Admin: handler, Logger: logger, Timeout: 3 * cfg.SendTimeout}
	gateway := discord.NewGateway(session, sink, commands, logger)

	// Slash commands cover administration; the HTTP surface is opt-in.
	var srv *http.Server
	if cfg.RequireAdminToken() == nil {
		srv = &http.Server{
			Addr:    ":" + strconv.Itoa(cfg.HTTPPort),
			Handler: admin.NewServer(handler, cfg.AdminToken, logger).Router(),
		}
		go func() {
			logger.Info().Int("port", cfg.HTTPPort).Msg("admin api listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal().Err(err).Msg("admin server failed")
			}
		}()
	} else {
		logger.Info().Msg("ADMIN_TOKEN not set, admin api disabled")
	}

	if err := gateway.Open(ctx, cfg.ConnectMaxElapsed); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to gateway")
	}
	logger.Info().Msg("guildlog started")

	<-ctx.Done()

	if err := gateway.Close(); err != nil {
		logger.Error().Err(err).Msg("gateway close failed")
	}
	p.Close()

	if srv == nil {
		return
	}
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

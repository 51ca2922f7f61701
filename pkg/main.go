package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pkg "github.com/riffhouse/riffhouse/pkg/internal"
	"github.com/riffhouse/riffhouse/pkg/internal/database"
	"github.com/riffhouse/riffhouse/pkg/internal/media"
	"github.com/riffhouse/riffhouse/pkg/internal/queue"
	"github.com/riffhouse/riffhouse/pkg/internal/services"
	"github.com/riffhouse/riffhouse/pkg/internal/storage"
	"github.com/riffhouse/riffhouse/pkg/internal/web"
	"github.com/riffhouse/riffhouse/pkg/internal/web/api"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	if err := database.NewSource(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	} else if err := database.RunMigration(database.C); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Connect to object storage
	blobs, err := storage.NewMinioStore()
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connecting to object storage.")
	}

	// Connect to the job queue
	queueConn, err := queue.NewConnection(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connecting to the job queue.")
	}
	publisher := queue.NewPublisher(queueConn)

	// Wire services
	data := services.NewGormStore()
	registry := services.NewPresenceRegistry()
	relay := services.NewSignalRelay(registry)
	notifier := services.NewWebhookNotifier()
	transcriber := services.NewQueueTranscriber(publisher)
	coordinator := services.NewSessionCoordinator(data, registry, relay, services.NewQueuePostProcessor(publisher))

	runner := media.ExecRunner{}
	worker := media.NewWorker(runner, data, blobs, notifier, transcriber)
	consumer := queue.NewConsumer(queueConn, "riffhouse_postprocess", queue.RouteSessionPostProcess, viper.GetInt("queue.workers"), media.HandlePostProcess)
	go func() {
		if err := consumer.Consume(ctx, worker); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("An error occurred when consuming post-processing jobs...")
		}
	}()

	// Server
	web.NewServer(api.Dependencies{
		Coordinator: coordinator,
		Registry:    registry,
		Relay:       relay,
		Data:        data,
		Blobs:       blobs,
		Ingest:      media.NewIngestStage(runner, data, blobs),
	})
	go web.Listen()

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	quartz.AddFunc("@every 60m", services.DoAutoDatabaseCleanup)
	quartz.Start()

	log.Info().Msgf("Riffhouse v%s is started...", pkg.AppVersion)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msgf("Riffhouse v%s is quitting...", pkg.AppVersion)

	quartz.Stop()
	cancel()
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/api"
	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
	"github.com/nickmccarty/kinstretch-web-app/internal/extract"
	"github.com/nickmccarty/kinstretch-web-app/internal/infra/config"
	"github.com/nickmccarty/kinstretch-web-app/internal/infra/email"
	"github.com/nickmccarty/kinstretch-web-app/internal/infra/inference"
	"github.com/nickmccarty/kinstretch-web-app/internal/infra/metrics"
	miniostorage "github.com/nickmccarty/kinstretch-web-app/internal/infra/minio"
	"github.com/nickmccarty/kinstretch-web-app/internal/infra/postgres"
	"github.com/nickmccarty/kinstretch-web-app/internal/infra/rabbitmq"
	"github.com/nickmccarty/kinstretch-web-app/internal/infra/tracing"
	videosource "github.com/nickmccarty/kinstretch-web-app/internal/infra/video"
	"github.com/nickmccarty/kinstretch-web-app/internal/infra/ytdlp"
	"github.com/nickmccarty/kinstretch-web-app/internal/stream"
	"github.com/nickmccarty/kinstretch-web-app/internal/tracker"
	"github.com/nickmccarty/kinstretch-web-app/internal/usecase"
	"github.com/nickmccarty/kinstretch-web-app/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting kinstretch-ingestion-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// Media store is optional: without it, upload jobs must reference local
	// paths.
	var media port.MediaStore
	if cfg.MinIOEndpoint != "" {
		store, err := miniostorage.NewMediaStore(miniostorage.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.MinIOMediaBucket,
		})
		fatalOnErr(err, "create media store")
		fatalOnErr(store.EnsureBucket(ctx), "ensure media bucket")
		media = store
	}

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	ingestPub := rabbitmq.NewIngestPublisher(pub)
	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub, err := rabbitmq.NewDLQPublisher(rmqConn, cfg.RabbitMQDLQ)
	fatalOnErr(err, "create dlq publisher")

	// Infra adapters
	videos := postgres.NewVideoRepository(pool)
	frames := postgres.NewPoseFrameRepository(pool)
	measurements := postgres.NewMeasurementRepository(pool)

	detector := inference.NewLandmarker(cfg.LandmarkerURL)
	var depth port.DepthEstimator
	if cfg.DepthURL != "" {
		depth = inference.NewDepthClient(cfg.DepthURL, log)
	}
	extractor := extract.New(videosource.NewOpener(), detector, depth, log)
	downloader := ytdlp.NewDownloader(cfg.YTDLPBin, cfg.DownloadDir, log)

	var notifier port.FailureNotifier
	if cfg.SMTPHost != "" {
		notifier = email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)
	}

	trk := tracker.New()

	// Use cases
	ingestUC := usecase.NewIngestVideoUseCase(
		videos, extractor, downloader, media,
		trk, statusPub, dlqPub, notifier,
		log,
		usecase.IngestVideoConfig{
			TempDir: cfg.TempDir,
			Stride:  cfg.FrameStride,
		},
	)
	submitUC := usecase.NewSubmitIngestionUseCase(videos, trk, ingestPub, log)
	statusUC := usecase.NewStatusUseCase(videos, trk)
	posesUC := usecase.NewPoseQueryUseCase(videos, frames)
	anglesUC := usecase.NewAngleUseCase(frames, measurements)
	libraryUC := usecase.NewVideoLibraryUseCase(videos)

	// HTTP surfaces
	streamHandler := stream.NewHandler(frames, log)
	apiSrv := api.NewServer(cfg.HTTPPort, submitUC, statusUC, posesUC, anglesUC, libraryUC, streamHandler, media, log)
	apiSrv.Start()
	metricsSrv := metrics.StartServer(cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQIngestQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
	}, ingestUC.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("kinstretch-ingestion-service started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	apiSrv.Shutdown(shutdownCtx)
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("kinstretch-ingestion-service stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}

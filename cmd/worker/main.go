package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pixelbank/archive-service/internal/config"
	downloadsRepository "github.com/pixelbank/archive-service/internal/downloads/repository"
	downloadsUsecase "github.com/pixelbank/archive-service/internal/downloads/usecase"
	"github.com/pixelbank/archive-service/internal/fetcher"
	"github.com/pixelbank/archive-service/internal/worker"
	"github.com/pixelbank/archive-service/pkg/db/aws"
	"github.com/pixelbank/archive-service/pkg/db/postgres"
	clientRedis "github.com/pixelbank/archive-service/pkg/db/redis"
	"github.com/pixelbank/archive-service/pkg/logger"
)

func main() {
	configFile := "config.yml"
	cfgFile, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("loadConfig: %v", err)
	}
	cfg, err := config.ParseConfig(cfgFile)
	if err != nil {
		log.Fatalf("parseConfig: %v", err)
	}
	appLogger := logger.NewApiLogger(cfg)
	appLogger.InitLogger()
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	psqlDB, err := postgres.NewPsqlDB(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to db: %s", err)
	}
	appLogger.Infof("db connected, status: %#v", psqlDB.Stats())
	defer psqlDB.Close()

	redisClient, err := clientRedis.NewRedisClient(cfg)
	if err != nil {
		appLogger.Fatalf("could not connect to redis: %s", err)
	}
	defer redisClient.Close()
	appLogger.Infof("redis connected")

	s3Client, presignClient, err := aws.NewAWSClient(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		appLogger.Fatalf("could not connect to s3: %s", err)
	}

	jobRepo := downloadsRepository.NewDownloadsRepo(psqlDB)
	redisRepo := downloadsRepository.NewDownloadsRedisRepo(redisClient, cfg.Redis.EventChannel, cfg.Redis.JobStateKey)
	awsRepo := downloadsRepository.NewAwsRepository(s3Client, presignClient, cfg.S3.ArchiveBucket)

	imageFetcher := fetcher.New(fetcher.Config{
		MaxRetries: cfg.Download.MaxRetries,
		Timeout:    cfg.Download.FetchTimeout(),
		Backoff:    cfg.Download.RetryBackoff(),
		MinBytes:   cfg.Download.MinImageBytes,
	})

	downloadsUC := downloadsUsecase.NewDownloadsUseCase(cfg, jobRepo, redisRepo, awsRepo, imageFetcher, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down worker")
		cancel()
	}()

	w := worker.New(cfg, downloadsUC, appLogger)
	w.Run(ctx)
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hushh-labs/hushhmcp-server/internal/api/http/handler"
	"github.com/hushh-labs/hushhmcp-server/internal/api/http/router"
	"github.com/hushh-labs/hushhmcp-server/internal/config"
	"github.com/hushh-labs/hushhmcp-server/internal/consent"
	"github.com/hushh-labs/hushhmcp-server/internal/logger"
	"github.com/hushh-labs/hushhmcp-server/internal/metrics"
	"github.com/hushh-labs/hushhmcp-server/internal/model"
	"github.com/hushh-labs/hushhmcp-server/internal/repository/postgres"
	"github.com/hushh-labs/hushhmcp-server/internal/server"
	"github.com/hushh-labs/hushhmcp-server/internal/service"
	storage "github.com/hushh-labs/hushhmcp-server/internal/storage/minio"
	"github.com/hushh-labs/hushhmcp-server/internal/vault"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	tokenManager, err := consent.NewManager(cfg.Consent.SigningSecret)
	if err != nil {
		logger.Fatal("failed to initialize token manager", "error", err)
	}
	masterKey, err := vault.ParseMasterKey(cfg.Vault.MasterKey)
	if err != nil {
		logger.Fatal("failed to parse vault master key", "error", err)
	}

	minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to create minio client", "error", err)
	}
	storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	recordRepo := postgres.NewVaultRecordRepository(db)
	consentService := service.NewConsent(tokenManager, logger, m)
	vaultService := service.NewVault(consentService, recordRepo, storageClient, masterKey, cfg.Vault.InlineLimitBytes, logger, m)

	mux := router.New(
		handler.NewConsent(consentService, logger),
		handler.NewVault(vaultService, logger),
		db,
		registry,
		logger,
	)
	httpServer := server.NewHTTPServer(fmt.Sprintf(":%s", cfg.HTTP.Port), mux, logger)

	var sl model.SecurityLayer

	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"banking-core/internal/config"
	"banking-core/internal/crypto"
	"banking-core/internal/handler"
	"banking-core/internal/monitoring"
	"banking-core/internal/proxy"
	"banking-core/internal/repository"
	"banking-core/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.LogLevel).Warn("Unknown log level, keeping info")
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		logger.Fatalf("Database is unreachable: %v", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		cancel()
		logger.Fatalf("Failed to apply schema: %v", err)
	}
	cancel()

	cvvKey, err := crypto.ParseKey(cfg.CVVEncryptionKey)
	if err != nil {
		logger.Fatalf("CVV_ENCRYPTION_KEY: %v", err)
	}
	cipher, err := crypto.NewCVVCipher(cvvKey)
	if err != nil {
		logger.Fatalf("Failed to init CVV cipher: %v", err)
	}
	signer, err := crypto.NewSigner([]byte(cfg.HMACSecret))
	if err != nil {
		logger.Fatalf("HMAC_SECRET: %v", err)
	}

	logger.Info("Initializing repositories")
	userRepo := repository.NewUserRepository(db, logger)
	accountRepo := repository.NewAccountRepository(db, logger)
	cardRepo := repository.NewCardRepository(db, logger)
	transactionRepo := repository.NewTransactionRepository(db, logger)

	logger.Info("Initializing services")
	emailSender := service.NewEmailSender(cfg.SMTP, logger)
	metrics := monitoring.NewRegistry(cfg.MetricsCapacity)

	accounts := proxy.NewAccountProxy(
		service.NewAccountService(accountRepo, cardRepo, cfg.Limits, logger), metrics, logger)
	cards := proxy.NewCardProxy(
		service.NewCardService(userRepo, accountRepo, cardRepo, cipher, signer, cfg.Limits, logger), metrics, logger)
	transfers := proxy.NewTransferProxy(
		service.NewTransferService(userRepo, cardRepo, transactionRepo, emailSender, cfg.Limits, logger), metrics, logger)
	authService := service.NewAuthService(userRepo, cfg.Limits.DefaultCurrency, cfg.JWTSecret, cfg.TokenExpiry, logger)

	router := handler.NewRouter(handler.Deps{
		Auth:      authService,
		Accounts:  accounts,
		Cards:     cards,
		Transfers: transfers,
		Metrics:   metrics,
		Logger:    logger,
	})

	reporter, err := monitoring.StartReporter(cfg.MetricsSchedule, metrics, logger)
	if err != nil {
		logger.Fatalf("Failed to start metrics reporter: %v", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", cfg.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	<-reporter.Stop().Done()
	monitoring.LogSummary(metrics, logger)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	logger.Info("Server stopped")
}


// Command tgtg-monitor runs the surprise-bag monitoring daemon: the web
// frontend for subscribers and the background poll loop that sends
// availability emails.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ritwyck/too-good-to-go-terminal/internal/config"
	"github.com/ritwyck/too-good-to-go-terminal/internal/db"
	"github.com/ritwyck/too-good-to-go-terminal/internal/monitor"
	"github.com/ritwyck/too-good-to-go-terminal/internal/notify"
	"github.com/ritwyck/too-good-to-go-terminal/internal/secrets"
	"github.com/ritwyck/too-good-to-go-terminal/internal/store"
	"github.com/ritwyck/too-good-to-go-terminal/internal/tgtg"
	"github.com/ritwyck/too-good-to-go-terminal/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		os.Stderr.WriteString("failed to create logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log, *configPath); err != nil {
		log.Error("daemon exited with error", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.Logger, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return err
	}

	setupCtx := context.Background()

	jwtSecret, err := store.GetJWTSecret(setupCtx, database)
	if err != nil {
		return err
	}

	// The encryption key normally lives in the database, generated on first
	// run; a key from config or environment takes precedence so deployments
	// can keep it out of the database file.
	keyHex := cfg.EncryptionKey
	if keyHex == "" {
		keyHex, err = store.GetEncryptionKey(setupCtx, database)
		if err != nil {
			return err
		}
	}
	key, err := secrets.ParseKey(keyHex)
	if err != nil {
		return err
	}

	market := tgtg.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.UserAgent, log)
	sender := notify.NewEmailSender(
		cfg.Email.APIURL, cfg.Email.APIKey,
		cfg.Email.SenderName, cfg.Email.SenderEmail,
		cfg.ServerURL, log,
	)
	if cfg.Email.APIKey == "" {
		log.Warn("email API key not configured, notification delivery will fail")
	}

	handler, err := web.NewRouter(database, jwtSecret, market, key, cfg.ServerURL, log)
	if err != nil {
		return err
	}

	server := &http.Server{Addr: cfg.Addr, Handler: handler}
	mon := &monitor.Monitor{
		DB:           database,
		Fetcher:      market,
		Notifier:     sender,
		Key:          key,
		Interval:     cfg.PollInterval(),
		CheckTimeout: cfg.CheckTimeout(),
		Log:          log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 2)
	go func() {
		log.Info("web server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	go func() {
		errs <- mon.Run(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case runErr = <-errs:
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown failed", zap.Error(err))
	}

	return runErr
}

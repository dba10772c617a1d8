package main

import (
	"fmt"
	"os"
	"time"

	"pigent-app/config"
	"pigent-app/database"
	"pigent-app/internal/infra/paystack"
	"pigent-app/internal/logger"
	"pigent-app/internal/payments"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pigent",
		Short:         "Pigent payments and bot provisioning API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(sweepCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what every command needs once config is loaded.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
	svc *payments.Service
}

func bootstrap() (*app, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	cleanup := func() { _ = log.Sync() }

	db, err := database.Open(cfg.DBURL, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	client := paystack.NewClient(paystack.Config{
		BaseURL:       cfg.Paystack.BaseURL,
		SecretKey:     cfg.Paystack.SecretKey,
		Timeout:       cfg.Paystack.Timeout,
		VerifyRetries: cfg.Paystack.VerifyRetries,
		RetryInterval: cfg.Paystack.RetryInterval,
	}, log)
	if !client.Configured() {
		log.Warn("PAYSTACK_SECRET_KEY not set, payment endpoints will fail")
	}

	svc := payments.NewService(payments.NewLedger(db, log), client, payments.Options{
		Catalog:       cfg.Pricing,
		AllowedModels: cfg.AllowedModels,
		CallbackURL:   cfg.Paystack.CallbackURL,
		VerifyTimeout: cfg.Paystack.Timeout * time.Duration(cfg.Paystack.VerifyRetries+1),
	}, log)

	return &app{cfg: cfg, log: log, db: db, svc: svc}, cleanup, nil
}

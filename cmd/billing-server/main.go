package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/danielglasgow/bracehealth/internal/adapter/httpapi"
	"github.com/danielglasgow/bracehealth/internal/clearinghouse"
	"github.com/danielglasgow/bracehealth/internal/config"
	"github.com/danielglasgow/bracehealth/internal/ledger"
	"github.com/danielglasgow/bracehealth/internal/observability/metrics"
	"github.com/danielglasgow/bracehealth/internal/usecase/payment"
	"github.com/danielglasgow/bracehealth/internal/usecase/receivable"
	"github.com/danielglasgow/bracehealth/internal/usecase/submission"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "billing-server",
		Short: "Claim ledger and payment allocation service",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the billing API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func checkConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate configuration and the payer config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.PayerConfigPath != "" {
				payers, err := clearinghouse.LoadPayerConfigs(cfg.PayerConfigPath)
				if err != nil {
					return err
				}
				fmt.Printf("payer config ok: %d payers\n", len(payers))
			} else {
				fmt.Println("no payer config file set, built-in demo payers will be used")
			}
			fmt.Printf("config ok: port=%s env=%s snapshot=%s\n", cfg.Port, cfg.Env, cfg.SnapshotPath)
			return nil
		},
	}
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	metrics.Init()

	// Ledger, loaded from the last snapshot if one exists.
	store := ledger.New(logger)
	if cfg.SnapshotPath != "" {
		snap, err := ledger.LoadSnapshot(cfg.SnapshotPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load ledger snapshot")
		}
		if err := store.Restore(snap); err != nil {
			logger.Fatal().Err(err).Msg("failed to restore ledger snapshot")
		}
		logger.Info().Int("claims", store.ClaimCount()).Msg("ledger restored from snapshot")
	}

	// Clearinghouse gateway: simulated, with payers from config.
	payers := clearinghouse.DefaultPayerConfigs()
	if cfg.PayerConfigPath != "" {
		payers, err = clearinghouse.LoadPayerConfigs(cfg.PayerConfigPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load payer config")
		}
	}
	gateway := clearinghouse.NewSimulator(payers, logger)

	// Services. The submission service is also the simulator's
	// remittance sink: adjudications loop back into the ledger.
	submissionSvc := submission.NewService(store, gateway, logger)
	gateway.SetSink(submissionSvc)
	paymentSvc := payment.NewService(store, logger)
	receivableSvc := receivable.NewService(store)

	// HTTP server.
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	server := httpapi.NewServer(submissionSvc, paymentSvc, receivableSvc, store, logger)
	server.RegisterRoutes(e)

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("billing server listening")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	waitForShutdown(e, store, cfg, logger)
	return nil
}

// waitForShutdown blocks until SIGINT/SIGTERM, drains the HTTP server,
// and writes the ledger snapshot. Unflushed state between snapshots is
// lost on crash; only an orderly shutdown persists.
func waitForShutdown(e *echo.Echo, store *ledger.Store, cfg *config.Config, logger zerolog.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	if cfg.SnapshotPath != "" {
		if err := store.WriteSnapshot(cfg.SnapshotPath); err != nil {
			logger.Error().Err(err).Msg("failed to write ledger snapshot")
		}
	}
	logger.Info().Msg("billing server stopped")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/wnt/crowdmint/internal/config"
	"github.com/wnt/crowdmint/internal/coordinator"
	"github.com/wnt/crowdmint/internal/ledger"
	"github.com/wnt/crowdmint/internal/logger"
	"github.com/wnt/crowdmint/internal/models"
	"github.com/wnt/crowdmint/internal/reconcile"
	"github.com/wnt/crowdmint/internal/rpc"
	"github.com/wnt/crowdmint/internal/wallet"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Parse command-line arguments
	envFile := flag.String("envFile", ".env", "Path to .env file")
	title := flag.String("title", "", "Title for a new campaign")
	description := flag.String("description", "", "Description for a new campaign")
	goal := flag.String("goal", "", "Goal amount in SOL for a new campaign")
	image := flag.String("image", "", "Image URL or data URI for a new campaign")
	donate := flag.String("donate", "", "Donation amount in SOL for the created campaign")
	flag.Parse()

	// Load environment variables from the specified file
	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("No .env file found at %s, using environment variables", *envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg := logger.New(cfg.LogLevel)

	pool := rpc.NewPool(cfg.RPCEndpoints, logg)
	campaignLedger := ledger.New(logg)
	gateway := wallet.NewClient(pool, cfg.WalletKeypair, cfg.ConfirmTimeout, cfg.ConfirmPollInterval, logg)
	coord := coordinator.New(gateway, campaignLedger, cfg.TreasuryAddress, logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return serveMetrics(egCtx, cfg.MetricsPort, logg)
	})
	eg.Go(func() error {
		return rpc.NewMonitor(pool, 30*time.Second, logg).Start(egCtx)
	})
	eg.Go(func() error {
		return reconcile.New(pool, campaignLedger, cfg.ReconcileInterval, logg).Start(egCtx)
	})

	if err := run(egCtx, coord, campaignLedger, *title, *description, *goal, *image, *donate); err != nil {
		logg.Error().Err(err).Msg("Run failed")
		stop()
		eg.Wait()
		os.Exit(1)
	}

	stop()
	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error().Err(err).Msg("Background task failed")
		os.Exit(1)
	}
}

// run executes the flag-driven flow: optionally create a campaign, then
// optionally connect the wallet and donate to it
func run(ctx context.Context, coord *coordinator.Coordinator, campaignLedger *ledger.Ledger, title, description, goal, image, donate string) error {
	if title != "" {
		goalAmount, err := decimal.NewFromString(goal)
		if err != nil {
			return fmt.Errorf("invalid -goal %q: %w", goal, err)
		}

		campaign, err := campaignLedger.CreateCampaign(title, description, goalAmount, image)
		if err != nil {
			return fmt.Errorf("create campaign: %w", err)
		}

		if donate != "" {
			if _, err := coord.Connect(ctx); err != nil {
				return fmt.Errorf("connect wallet: %w", err)
			}
			if _, err := coord.Donate(ctx, campaign.ID, donate); err != nil {
				return fmt.Errorf("donate: %w", err)
			}
		}
	} else if donate != "" {
		return fmt.Errorf("-donate requires -title: donations target the campaign created in this run")
	}

	printSnapshot(campaignLedger.Campaigns(), coord.Session())
	return nil
}

// printSnapshot renders the ledger state for the operator
func printSnapshot(campaigns []models.Campaign, session models.WalletSession) {
	if session.Connected() {
		fmt.Printf("Connected wallet: %s\n", session.Address)
	}

	if len(campaigns) == 0 {
		fmt.Println("No campaigns created yet.")
		return
	}

	for _, campaign := range campaigns {
		fmt.Printf("%s: %s (goal %s SOL, raised %s SOL)\n",
			campaign.ID, campaign.Title, campaign.GoalAmount, campaign.TotalRaised())
		for _, donation := range campaign.Donations {
			fmt.Printf("  %s SOL from %s (%s)\n", donation.Amount, donation.From, donation.Signature)
		}
	}
}

// serveMetrics exposes Prometheus metrics until the context is cancelled
func serveMetrics(ctx context.Context, port string, logg zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logg.Info().Str("port", port).Msg("Metrics server started")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error().Err(err).Msg("Metrics server shutdown failed")
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	}
}

package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/config"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/normalize"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/scheduler"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/scraper"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/storage"
)

var updateWatch bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Scrape the listing page and rebuild the dataset tiers",
	Long: `Run the scrape → normalize pipeline once, replacing the bronze,
silver and gold parquet snapshots.

With --watch the command keeps running and repeats the pipeline on the
configured interval, without starting the bot.`,
	Run: runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVarP(&updateWatch, "watch", "w", false, "Keep running on the configured interval")
}

func runUpdate(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tiers, err := storage.NewTiers(cfg.App.DataDir)
	if err != nil {
		log.Fatalf("Failed to open data dir: %v", err)
	}

	fetcher := scraper.NewFetcher(cfg.Scrape.URL, cfg.Scrape.UserAgent, cfg.Scrape.Timeout)
	normalizer := normalize.New(tiers)
	sched := scheduler.New(fetcher, normalizer, tiers, nil, nil, cfg.Scrape.Interval)

	if !updateWatch {
		if err := sched.RunOnce(ctx); err != nil {
			log.Fatalf("Pipeline run failed: %v", err)
		}
		return
	}

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	log.Printf("Watching — pipeline repeats every %s. Press Ctrl+C to stop.", cfg.Scrape.Interval)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Stopping.")
}

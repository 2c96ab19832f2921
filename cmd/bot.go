package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/bot"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/config"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/dataset"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/normalize"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/query"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/scheduler"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/scraper"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/storage"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/subscription"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot together with the periodic update pipeline",
	Long: `Run the Telegram bot and, in the same process, the cron loop that
re-scrapes the listing page and alerts active subscribers about new calls.

Requires TELEGRAM_TOKEN in the environment. When REDIS_URL is set the
subscriber list lives in Redis instead of the local JSON file.`,
	Run: runBot,
}

func init() {
	rootCmd.AddCommand(botCmd)
}

func runBot(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	token, err := config.TelegramToken()
	if err != nil {
		log.Fatalf("Failed to load credentials: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received interrupt signal, shutting down...")
		cancel()
	}()

	tiers, err := storage.NewTiers(cfg.App.DataDir)
	if err != nil {
		log.Fatalf("Failed to open data dir: %v", err)
	}

	store, err := newSubscriberStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open subscriber store: %v", err)
	}
	subs := subscription.NewService(store)

	cache := dataset.New(tiers, cfg.App.CacheTTL)
	queries := query.NewService(cache, cfg.App.MessageLimit)

	tgBot, err := bot.New(token, queries, subs)
	if err != nil {
		log.Fatalf("Failed to start Telegram bot: %v", err)
	}

	fetcher := scraper.NewFetcher(cfg.Scrape.URL, cfg.Scrape.UserAgent, cfg.Scrape.Timeout)
	normalizer := normalize.New(tiers)
	sched := scheduler.New(fetcher, normalizer, tiers, subs, tgBot, cfg.Scrape.Interval)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	if err := tgBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Bot stopped: %v", err)
	}
	log.Println("Bot stopped.")
}

// newSubscriberStore picks the Redis backend when REDIS_URL is set and the
// JSON file otherwise.
func newSubscriberStore(ctx context.Context, cfg *config.Config) (subscription.Store, error) {
	if url := config.RedisURL(); url != "" {
		log.Println("Using Redis subscriber store")
		return subscription.NewRedisStore(ctx, url, "chamadasbot:users")
	}
	return subscription.NewFileStore(cfg.App.UsersFile), nil
}

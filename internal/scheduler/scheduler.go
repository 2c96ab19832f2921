// Package scheduler runs the scrape → normalize pipeline on a fixed interval
// and alerts active subscribers about notices that appeared since the
// previous run.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/model"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/normalize"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/query"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/scraper"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/subscription"
)

// GoldLoader reads the previous derived tier so a run can tell which notices
// are new.
type GoldLoader interface {
	LoadGold() ([]model.Notice, error)
}

// Scheduler wraps robfig/cron around the pipeline. Pipeline failures are
// logged and swallowed — the loop always survives to the next tick.
type Scheduler struct {
	cron       *cron.Cron
	fetcher    *scraper.Fetcher
	normalizer *normalize.Normalizer
	gold       GoldLoader
	subs       *subscription.Service
	sender     query.Sender
	spec       string
}

// New creates a Scheduler firing every interval. sender may be nil (the
// standalone update command has no transport); alerts are then skipped.
func New(
	fetcher *scraper.Fetcher,
	normalizer *normalize.Normalizer,
	gold GoldLoader,
	subs *subscription.Service,
	sender query.Sender,
	interval time.Duration,
) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		fetcher:    fetcher,
		normalizer: normalizer,
		gold:       gold,
		subs:       subs,
		sender:     sender,
		spec:       fmt.Sprintf("@every %s", interval),
	}
}

// Start registers the job and starts the cron loop, running one pipeline
// cycle immediately so the dataset exists without waiting for the first
// tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.RunOnce(ctx); err != nil {
			log.Printf("[scheduler] pipeline run failed: %v — retrying next tick", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] started — spec: %s", s.spec)

	go func() {
		if err := s.RunOnce(ctx); err != nil {
			log.Printf("[scheduler] initial run failed: %v", err)
		}
	}()

	return nil
}

// Stop shuts down the cron loop.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Printf("[scheduler] stopped")
}

// RunOnce executes one full pipeline cycle: fetch the page, extract raw
// notices, normalize and persist all tiers, then broadcast anything that was
// not in the previous derived snapshot.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	log.Printf("[scheduler] pipeline cycle started")

	page, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	raw, err := scraper.Extract(page)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	previous := s.previousKeys()

	gold, err := s.normalizer.Run(raw)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	s.alertNew(ctx, gold, previous)

	log.Printf("[scheduler] pipeline cycle complete — %d records", len(gold))
	return nil
}

// previousKeys snapshots the identities in the current gold tier before the
// run replaces it. Returns nil when there is no readable prior tier, which
// suppresses alerting for that cycle.
func (s *Scheduler) previousKeys() map[string]bool {
	keys := map[string]bool{}
	prior, err := s.gold.LoadGold()
	if err != nil {
		log.Printf("[scheduler] no prior gold tier for diffing: %v", err)
		return nil
	}
	for i := range prior {
		if k := prior[i].Key(); k != "" {
			keys[k] = true
		}
	}
	return keys
}

// alertNew broadcasts records whose identity was absent from the previous
// run. With no prior tier at all there is nothing to compare against, so the
// first run stays silent instead of spamming the full backlog.
func (s *Scheduler) alertNew(ctx context.Context, gold []model.Notice, previous map[string]bool) {
	if s.sender == nil || s.subs == nil || previous == nil {
		return
	}

	var fresh []model.Notice
	for i := range gold {
		k := gold[i].Key()
		if k != "" && !previous[k] {
			fresh = append(fresh, gold[i])
		}
	}
	if len(fresh) == 0 {
		return
	}

	ids, err := s.subs.ActiveIDs()
	if err != nil {
		log.Printf("[scheduler] cannot load subscribers: %v", err)
		return
	}
	query.Broadcast(ctx, s.sender, fresh, ids)
}

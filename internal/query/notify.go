package query

import (
	"context"
	"fmt"
	"log"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/model"
)

// Sender delivers one text message to one user. The Telegram adapter
// implements it; tests use fakes.
type Sender interface {
	Send(ctx context.Context, userID, text string) error
}

// Broadcast sends one message per notice to every id in activeIDs. A failed
// delivery is logged and skips only that recipient's remaining messages —
// the rest of the batch always proceeds. Broadcast itself never fails.
func Broadcast(ctx context.Context, sender Sender, notices []model.Notice, activeIDs []string) {
	if len(notices) == 0 {
		log.Printf("[query] no new notices to broadcast")
		return
	}
	if len(activeIDs) == 0 {
		log.Printf("[query] no active subscribers to alert")
		return
	}

	log.Printf("[query] alerting %d subscriber(s) about %d notice(s)", len(activeIDs), len(notices))
	for _, id := range activeIDs {
		for _, n := range notices {
			if err := sender.Send(ctx, id, formatAlert(&n)); err != nil {
				log.Printf("[query] delivery to %s failed: %v", id, err)
				break
			}
		}
	}
}

func formatAlert(n *model.Notice) string {
	num, year := "?", "?"
	if n.CallNumber != nil {
		num = n.CallNumberString()
	}
	if n.Year != nil {
		year = *n.Year
	}
	link := "N/A"
	if n.Link != nil {
		link = *n.Link
	}
	return fmt.Sprintf("📢 Novo edital publicado: *%s/%s*\n🔗 Link: %s", num, year, link)
}

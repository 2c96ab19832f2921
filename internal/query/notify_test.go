package query_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/model"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/query"
)

// fakeSender records deliveries and can be scripted to fail per user.
type fakeSender struct {
	sent    map[string][]string
	failFor map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: map[string][]string{}, failFor: map[string]bool{}}
}

func (f *fakeSender) Send(ctx context.Context, userID, text string) error {
	if f.failFor[userID] {
		return errors.New("chat not found")
	}
	f.sent[userID] = append(f.sent[userID], text)
	return nil
}

// ── Broadcast ──────────────────────────────────────────────────────────────

func TestBroadcast_OneMessagePerNoticePerSubscriber(t *testing.T) {
	sender := newFakeSender()
	notices := []model.Notice{
		notice(10, "2024", true, day10),
		notice(11, "2024", true, day10),
	}

	query.Broadcast(context.Background(), sender, notices, []string{"u1", "u2"})

	for _, id := range []string{"u1", "u2"} {
		if len(sender.sent[id]) != 2 {
			t.Errorf("subscriber %s got %d messages, want 2", id, len(sender.sent[id]))
		}
	}
	if !strings.Contains(sender.sent["u1"][0], "10/2024") {
		t.Errorf("first message should announce 10/2024, got %q", sender.sent["u1"][0])
	}
}

func TestBroadcast_FailureIsolatedPerRecipient(t *testing.T) {
	sender := newFakeSender()
	sender.failFor["u2"] = true
	notices := []model.Notice{notice(10, "2024", true, day10)}

	query.Broadcast(context.Background(), sender, notices, []string{"u1", "u2", "u3"})

	if len(sender.sent["u1"]) != 1 || len(sender.sent["u3"]) != 1 {
		t.Error("a failing recipient must not block delivery to the others")
	}
	if len(sender.sent["u2"]) != 0 {
		t.Error("failing recipient should have received nothing")
	}
}

func TestBroadcast_NoNoticesOrNoSubscribers(t *testing.T) {
	sender := newFakeSender()

	query.Broadcast(context.Background(), sender, nil, []string{"u1"})
	query.Broadcast(context.Background(), sender, []model.Notice{notice(1, "2024", true, day10)}, nil)

	if len(sender.sent) != 0 {
		t.Errorf("nothing should have been delivered, got %v", sender.sent)
	}
}

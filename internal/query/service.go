// Package query implements the read operations the chat transport exposes:
// most-recent notice, lookup by call number, the open-notice listing and the
// new-notice broadcast. It consumes dataset snapshots and never touches
// storage directly.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/dataset"
	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/model"
)

// ErrNoData is returned when the snapshot is empty or unavailable. The
// transport renders it as a friendly "can't load the data right now" reply.
var ErrNoData = errors.New("no notice data available")

// truncationMarker is appended when the open-notice listing is cut to fit
// the transport's message size limit.
const truncationMarker = "... (lista muito longa)"

// Snapshotter is the dataset surface the query layer reads from.
type Snapshotter interface {
	Snapshot() ([]model.Notice, error)
}

// Service answers notice queries from cached snapshots.
type Service struct {
	data         Snapshotter
	messageLimit int
}

// NewService returns a Service. messageLimit bounds the serialized open-list
// reply (Telegram caps messages at 4096 chars; the default config uses 4000).
func NewService(data Snapshotter, messageLimit int) *Service {
	return &Service{data: data, messageLimit: messageLimit}
}

// MostRecent returns the notice with the highest year, then the highest call
// number. Records missing either field are excluded from the ranking rather
// than sorting as zero — an unparseable record must not rank as "older than
// everything".
func (s *Service) MostRecent() (*model.Notice, error) {
	notices, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	var best *model.Notice
	for i := range notices {
		n := &notices[i]
		if n.CallNumber == nil || n.Year == nil {
			continue
		}
		if best == nil || moreRecent(n, best) {
			best = n
		}
	}
	if best == nil {
		return nil, ErrNoData
	}
	out := best.Clone()
	return &out, nil
}

// moreRecent ranks by year (string compare, years are fixed-width) then by
// numeric call number. Both arguments have the two fields present.
func moreRecent(a, b *model.Notice) bool {
	if *a.Year != *b.Year {
		return *a.Year > *b.Year
	}
	return *a.CallNumber > *b.CallNumber
}

// Lookup finds the notice whose call number matches num exactly, as opaque
// strings. A nil result with nil error means "not found" — a normal outcome,
// not a failure.
func (s *Service) Lookup(num string) (*model.Notice, error) {
	notices, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	for i := range notices {
		if notices[i].CallNumberString() == num {
			out := notices[i].Clone()
			return &out, nil
		}
	}
	return nil, nil
}

// ListOpen returns all open notices, soonest-closing first. An empty slice
// is a normal result.
func (s *Service) ListOpen() ([]model.Notice, error) {
	notices, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	open := make([]model.Notice, 0)
	for _, n := range notices {
		if n.IsOpen {
			open = append(open, n)
		}
	}
	sort.SliceStable(open, func(i, j int) bool {
		// Open notices always carry an end date (open ⇒ deadline ahead),
		// but guard anyway.
		if open[i].EndDate == nil || open[j].EndDate == nil {
			return open[j].EndDate != nil
		}
		return open[i].EndDate.Before(*open[j].EndDate)
	})
	return open, nil
}

// FormatOpenList renders the open-notice reply, truncating at the message
// limit with a marker.
func (s *Service) FormatOpenList(open []model.Notice) string {
	if len(open) == 0 {
		return "✅ Nenhum edital aberto encontrado no momento."
	}

	var b strings.Builder
	b.WriteString("*Editais Abertos:*\n")
	truncated := false
	for _, n := range open {
		entry := "\n\n" + formatOpenEntry(&n)
		if b.Len()+len(entry)+len("\n\n")+len(truncationMarker) > s.messageLimit {
			truncated = true
			break
		}
		b.WriteString(entry)
	}
	if truncated {
		b.WriteString("\n\n" + truncationMarker)
	}
	return b.String()
}

func formatOpenEntry(n *model.Notice) string {
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
	return fmt.Sprintf("📌 Edital *%s/%s*\n⏳ Restam: *%s*\n🔗 Link: %s",
		num, year, FormatRemaining(n.HoursRemaining), link)
}

// FormatRemaining renders an hour count as days and hours.
func FormatRemaining(totalHours float64) string {
	if totalHours <= 0 {
		return "Encerrado"
	}
	days := int(totalHours) / 24
	hours := int(totalHours) % 24

	parts := make([]string, 0, 2)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if len(parts) == 0 {
		return "< 1h"
	}
	return strings.Join(parts, " ")
}

func (s *Service) snapshot() ([]model.Notice, error) {
	notices, err := s.data.Snapshot()
	if err != nil {
		if errors.Is(err, dataset.ErrUnavailable) {
			return nil, ErrNoData
		}
		return nil, err
	}
	return notices, nil
}

// Package normalize turns raw scraped notices into the typed silver tier and
// the derived gold tier, and persists all three tiers as full-replace
// snapshots.
//
// The boundary is fail-fast: a single record with a non-numeric call number
// or a malformed registration period aborts the whole run before anything is
// written, leaving the prior snapshots untouched. (The query layer is the
// permissive side — it works with whatever the last good run produced.)
package normalize

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/lucas-mlima/projeto-chamadas-bolsas-ipea/internal/model"
)

// periodSeparator splits "DD/MM/YYYY à DD/MM/YYYY" registration windows.
const (
	periodSeparator = " à "
	dateLayout      = "02/01/2006"
)

// TierWriter is the slice of the storage layer the normalizer needs.
type TierWriter interface {
	WriteBronze([]model.RawNotice) error
	WriteSilver([]model.SilverNotice) error
	WriteGold([]model.Notice) error
}

// Normalizer converts and persists one scrape run.
type Normalizer struct {
	tiers TierWriter
	now   func() time.Time
}

// New returns a Normalizer using the wall clock.
func New(tiers TierWriter) *Normalizer {
	return &Normalizer{tiers: tiers, now: time.Now}
}

// NewWithClock injects a fixed clock for deterministic tests.
func NewWithClock(tiers TierWriter, now func() time.Time) *Normalizer {
	return &Normalizer{tiers: tiers, now: now}
}

// Run derives the silver and gold tiers from raw and replaces all three
// durable snapshots. The reference instant for the derived status fields is
// captured once for the whole run. All conversion happens before the first
// write, so a conversion failure leaves storage byte-identical.
func (n *Normalizer) Run(raw []model.RawNotice) ([]model.Notice, error) {
	refInstant := n.now()

	silver := make([]model.SilverNotice, 0, len(raw))
	gold := make([]model.Notice, 0, len(raw))

	for i, r := range raw {
		s, err := toSilver(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		g, err := toGold(s, refInstant)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		silver = append(silver, s)
		gold = append(gold, g)
	}

	if err := n.tiers.WriteBronze(raw); err != nil {
		return nil, fmt.Errorf("persist bronze tier: %w", err)
	}
	if err := n.tiers.WriteSilver(silver); err != nil {
		return nil, fmt.Errorf("persist silver tier: %w", err)
	}
	if err := n.tiers.WriteGold(gold); err != nil {
		return nil, fmt.Errorf("persist gold tier: %w", err)
	}

	log.Printf("[normalize] run complete — %d records, reference instant %s",
		len(gold), refInstant.Format(time.RFC3339))
	return gold, nil
}

// toSilver coerces the call number to its integer-backed form. A nil call
// number is retained as nil; a present but non-numeric one fails the run.
func toSilver(r model.RawNotice) (model.SilverNotice, error) {
	s := model.SilverNotice{
		Year:               r.Year,
		Link:               r.Link,
		Program:            r.Program,
		RegistrationPeriod: r.RegistrationPeriod,
	}
	if r.CallNumber != nil {
		num, err := strconv.ParseInt(strings.TrimSpace(*r.CallNumber), 10, 64)
		if err != nil {
			return model.SilverNotice{}, fmt.Errorf("non-numeric call number %q", *r.CallNumber)
		}
		s.CallNumber = &num
	}
	return s, nil
}

// toGold parses the registration window and computes the status fields.
func toGold(s model.SilverNotice, refInstant time.Time) (model.Notice, error) {
	g := model.Notice{
		CallNumber:         s.CallNumber,
		Year:               s.Year,
		Link:               s.Link,
		Program:            s.Program,
		RegistrationPeriod: s.RegistrationPeriod,
	}

	if s.RegistrationPeriod != nil {
		start, end, err := parsePeriod(*s.RegistrationPeriod)
		if err != nil {
			return model.Notice{}, err
		}
		g.StartDate = &start
		g.EndDate = &end
	}

	g.RecomputeStatus(refInstant)
	return g, nil
}

func parsePeriod(period string) (start, end time.Time, err error) {
	parts := strings.Split(period, periodSeparator)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("registration period %q does not split on %q", period, periodSeparator)
	}
	start, err = time.ParseInLocation(dateLayout, strings.TrimSpace(parts[0]), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date in %q: %w", period, err)
	}
	end, err = time.ParseInLocation(dateLayout, strings.TrimSpace(parts[1]), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date in %q: %w", period, err)
	}
	return start, end, nil
}

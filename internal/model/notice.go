// Package model defines the notice record types shared by the pipeline,
// the dataset cache and the query layer.
//
// Every field the page extractor may fail to produce is a pointer — a nil
// means "extraction did not find it", never a silently defaulted value.
package model

import (
	"fmt"
	"time"
)

// RawNotice is one scraped listing entry before any typing or date parsing
// (the bronze tier).
type RawNotice struct {
	CallNumber         *string `parquet:"numero_chamada,optional"`
	Year               *string `parquet:"ano_chamada,optional"`
	Link               *string `parquet:"link_chamada,optional"`
	Program            *string `parquet:"programa,optional"`
	RegistrationPeriod *string `parquet:"periodo_inscricao,optional"`
}

// SilverNotice is the typed-but-underived middle tier: the call number has
// been coerced to an integer, everything else is still the raw string form.
type SilverNotice struct {
	CallNumber         *int64  `parquet:"numero_chamada,optional"`
	Year               *string `parquet:"ano_chamada,optional"`
	Link               *string `parquet:"link_chamada,optional"`
	Program            *string `parquet:"programa,optional"`
	RegistrationPeriod *string `parquet:"periodo_inscricao,optional"`
}

// Notice is a fully derived record (the gold tier): typed call number,
// parsed registration window and the two time-sensitive status fields.
type Notice struct {
	CallNumber         *int64     `parquet:"numero_chamada,optional"`
	Year               *string    `parquet:"ano_chamada,optional"`
	Link               *string    `parquet:"link_chamada,optional"`
	Program            *string    `parquet:"programa,optional"`
	RegistrationPeriod *string    `parquet:"periodo_inscricao,optional"`
	StartDate          *time.Time `parquet:"dt_inicio,optional"`
	EndDate            *time.Time `parquet:"dt_fim,optional"`
	IsOpen             bool       `parquet:"edital_aberto"`
	HoursRemaining     float64    `parquet:"horas_restantes"`
}

// RecomputeStatus derives IsOpen and HoursRemaining from EndDate relative to
// now. The effective closing boundary is the end of the closing day
// (23:59:59). Both fields are always set together so they can never be
// mutually stale: HoursRemaining >= 0 and IsOpen ⇔ HoursRemaining > 0.
// Calling it again with the same instant is a no-op on the result.
func (n *Notice) RecomputeStatus(now time.Time) {
	if n.EndDate == nil {
		n.IsOpen = false
		n.HoursRemaining = 0
		return
	}
	d := *n.EndDate
	deadline := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, d.Location())
	hours := deadline.Sub(now).Hours()
	if hours < 0 {
		hours = 0
	}
	n.HoursRemaining = hours
	n.IsOpen = hours > 0
}

// Key returns the "number/year" identity used to compare notices across
// scrape runs, or "" when either part is missing.
func (n *Notice) Key() string {
	if n.CallNumber == nil || n.Year == nil {
		return ""
	}
	return fmt.Sprintf("%d/%s", *n.CallNumber, *n.Year)
}

// CallNumberString renders the call number for opaque string comparison in
// lookups, or "" when missing.
func (n *Notice) CallNumberString() string {
	if n.CallNumber == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n.CallNumber)
}

// Clone returns a deep copy. Snapshot consumers get clones so they can never
// reach back into cache state.
func (n *Notice) Clone() Notice {
	c := *n
	c.CallNumber = cloneInt64(n.CallNumber)
	c.Year = cloneString(n.Year)
	c.Link = cloneString(n.Link)
	c.Program = cloneString(n.Program)
	c.RegistrationPeriod = cloneString(n.RegistrationPeriod)
	c.StartDate = cloneTime(n.StartDate)
	c.EndDate = cloneTime(n.EndDate)
	return c
}

// CloneNotices deep-copies a whole slice.
func CloneNotices(in []Notice) []Notice {
	if in == nil {
		return nil
	}
	out := make([]Notice, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

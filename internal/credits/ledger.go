// Package credits enforces the daily pacing limit on validate actions. The
// ledger is deterministic: every operation takes the caller's clock reading
// rather than ambient time.
package credits

import (
	"errors"
	"time"

	"github.com/abhisek/odyssey/internal/progress"
)

// ErrNoCredit is returned when the day's validation allowance is spent.
// It is an expected result, not a failure: the caller shows a "not yet"
// message and no state changes.
var ErrNoCredit = errors.New("no validation credit available")

// DefaultAllowance is the number of validate actions granted per calendar
// day.
const DefaultAllowance = 1

// Ledger grants a fixed validation allowance per calendar day in a
// configured time zone. There is no carry-over between days.
type Ledger struct {
	allowance int
	loc       *time.Location
}

// NewLedger creates a ledger. A non-positive allowance falls back to
// DefaultAllowance; a nil location falls back to UTC.
func NewLedger(allowance int, loc *time.Location) *Ledger {
	if allowance <= 0 {
		allowance = DefaultAllowance
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{allowance: allowance, loc: loc}
}

// Allowance returns the configured daily allowance.
func (l *Ledger) Allowance() int {
	return l.allowance
}

// Available returns how many validate actions remain for the calendar day
// containing now. The allowance refreshes when the day rolls over.
func (l *Ledger) Available(rec *progress.Record, now time.Time) int {
	if rec.LastValidationAt == nil || !l.sameDay(*rec.LastValidationAt, now) {
		return l.allowance
	}
	remaining := l.allowance - rec.CreditsConsumedToday
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Consume spends one validation credit and stamps the record. With bypass
// set the action always succeeds and is timestamped for audit, but the
// consumed counter is untouched. Without bypass, ErrNoCredit is returned
// when the allowance is exhausted and nothing is mutated.
func (l *Ledger) Consume(rec *progress.Record, now time.Time, bypass bool) error {
	// Refresh the counter on day rollover in both modes, so a bypassed
	// stamp cannot pin a previous day's count against today's allowance.
	if rec.LastValidationAt == nil || !l.sameDay(*rec.LastValidationAt, now) {
		rec.CreditsConsumedToday = 0
	}

	if bypass {
		stamp := now
		rec.LastValidationAt = &stamp
		return nil
	}

	if l.allowance-rec.CreditsConsumedToday <= 0 {
		return ErrNoCredit
	}
	rec.CreditsConsumedToday++
	stamp := now
	rec.LastValidationAt = &stamp
	return nil
}

// sameDay reports whether a and b fall on the same calendar day in the
// ledger's time zone.
func (l *Ledger) sameDay(a, b time.Time) bool {
	ya, ma, da := a.In(l.loc).Date()
	yb, mb, db := b.In(l.loc).Date()
	return ya == yb && ma == mb && da == db
}

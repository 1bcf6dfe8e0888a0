// Package cutoff evaluates meal-edit deadlines in a mess's fixed operating
// locale. A slot is locked for a date once "now" in that locale passes the
// slot's cutoff instant. Breakfast is the odd one out: its cutoff falls on
// the previous calendar day, so tomorrow's breakfast must be declared
// tonight.
package cutoff

import (
	"fmt"
	"time"

	"github.com/mrahman/messbook/internal/models"
)

// Clock supplies the current instant. Injectable so cutoff checks are
// testable without sleeping until 21:00.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Checker evaluates slot locks for one mess.
type Checker struct {
	loc   *time.Location
	clock Clock
}

// NewChecker builds a Checker for the given IANA timezone name. The clock
// may be nil, in which case the system clock is used.
func NewChecker(timezone string, clock Clock) (*Checker, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid mess timezone %q: %w", timezone, err)
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Checker{loc: loc, clock: clock}, nil
}

// Locked reports whether the given slot on mealDate ("2006-01-02") can no
// longer be edited under cfg. The comparison happens entirely in the
// mess's locale, never the server's.
func (c *Checker) Locked(slot models.Slot, mealDate string, cfg *models.CutoffConfig) (bool, error) {
	date, err := time.ParseInLocation(models.DateLayout, mealDate, c.loc)
	if err != nil {
		return false, fmt.Errorf("invalid meal date %q: %w", mealDate, err)
	}

	var hhmm string
	switch slot {
	case models.SlotBreakfast:
		hhmm = cfg.BreakfastCutoff
		date = date.AddDate(0, 0, -1) // locks the evening before
	case models.SlotLunch:
		hhmm = cfg.LunchCutoff
	case models.SlotDinner:
		hhmm = cfg.DinnerCutoff
	default:
		return false, fmt.Errorf("unknown meal slot %q", slot)
	}

	hour, min, err := parseHHMM(hhmm)
	if err != nil {
		return false, err
	}

	cutoffAt := time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, c.loc)
	return c.clock.Now().In(c.loc).After(cutoffAt), nil
}

// LockState reports the lock status of all three slots for mealDate.
func (c *Checker) LockState(mealDate string, cfg *models.CutoffConfig) (breakfast, lunch, dinner bool, err error) {
	if breakfast, err = c.Locked(models.SlotBreakfast, mealDate, cfg); err != nil {
		return
	}
	if lunch, err = c.Locked(models.SlotLunch, mealDate, cfg); err != nil {
		return
	}
	dinner, err = c.Locked(models.SlotDinner, mealDate, cfg)
	return
}

func parseHHMM(s string) (hour, min int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cutoff time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

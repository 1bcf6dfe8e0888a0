package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mrahman/messbook/internal/models"
	"github.com/mrahman/messbook/internal/storage"
)

var cyclesClosed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "messbook_cycles_closed_total",
	Help: "Number of billing cycles closed.",
})

// CycleService manages billing months: the atomic close, listings and
// renames.
type CycleService struct {
	store storage.Store
}

// NewCycleService creates a new CycleService.
func NewCycleService(store storage.Store) *CycleService {
	return &CycleService{store: store}
}

// CloseResult is what the month close hands back: the frozen snapshots
// and the successor cycle that is now open.
type CloseResult struct {
	ClosedCycleID string            `json:"closed_cycle_id"`
	Successor     *models.Cycle     `json:"successor"`
	Snapshots     []models.Snapshot `json:"snapshots"`
}

// CloseMonth closes the mess's open cycle and opens the successor.
// Manager-only. The rate is frozen, snapshots written and opening
// balances carried forward in a single transaction; a concurrent second
// close fails with ErrCycleClosed and changes nothing.
func (s *CycleService) CloseMonth(ctx context.Context, actor Actor, nextName, nextStart, nextEnd string) (*CloseResult, error) {
	if err := requireManager(actor); err != nil {
		return nil, err
	}

	cycle, err := s.store.OpenCycle(ctx, actor.MessID)
	if err != nil {
		return nil, err
	}

	if nextStart == "" {
		nextName, nextStart, nextEnd = successorBounds(cycle)
	} else {
		if _, err := time.Parse(models.DateLayout, nextStart); err != nil {
			return nil, fmt.Errorf("bad start date %q: %w", nextStart, ErrInvalidInput)
		}
		if _, err := time.Parse(models.DateLayout, nextEnd); err != nil {
			return nil, fmt.Errorf("bad end date %q: %w", nextEnd, ErrInvalidInput)
		}
		// The successor must not overlap the cycle being frozen; the
		// date layout sorts lexicographically.
		if nextStart <= cycle.EndDate {
			return nil, fmt.Errorf("next cycle start %s is not after %s: %w",
				nextStart, cycle.EndDate, ErrInvalidInput)
		}
		if nextEnd < nextStart {
			return nil, fmt.Errorf("next cycle end %s precedes its start: %w", nextEnd, ErrInvalidInput)
		}
	}

	successor, snapshots, err := s.store.CloseCycle(ctx, cycle.ID, time.Now(), nextName, nextStart, nextEnd)
	if err != nil {
		return nil, err
	}
	cyclesClosed.Inc()

	slog.Info("cycle closed",
		"mess_id", actor.MessID, "cycle_id", cycle.ID,
		"successor_id", successor.ID, "members", len(snapshots))
	logActivity(ctx, s.store, actor, "cycle.close", cycle.Name)

	return &CloseResult{
		ClosedCycleID: cycle.ID,
		Successor:     successor,
		Snapshots:     snapshots,
	}, nil
}

// successorBounds derives the next calendar month from the closing
// cycle's end date: day after the end through that month's last day.
func successorBounds(cycle *models.Cycle) (name, start, end string) {
	endDate, err := time.Parse(models.DateLayout, cycle.EndDate)
	if err != nil {
		endDate = time.Now()
	}
	startDate := endDate.AddDate(0, 0, 1)
	monthEnd := time.Date(startDate.Year(), startDate.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1)

	return startDate.Format("January 2006"),
		startDate.Format(models.DateLayout),
		monthEnd.Format(models.DateLayout)
}

// Cycles lists a mess's cycles, newest first.
func (s *CycleService) Cycles(ctx context.Context, actor Actor) ([]models.Cycle, error) {
	return s.store.ListCycles(ctx, actor.MessID)
}

// Cycle returns one of the actor's mess's cycles.
func (s *CycleService) Cycle(ctx context.Context, actor Actor, cycleID string) (*models.Cycle, error) {
	return cycleForActor(ctx, s.store, actor, cycleID)
}

// Rename changes a cycle's display name. Manager-only.
func (s *CycleService) Rename(ctx context.Context, actor Actor, cycleID, name string) error {
	if err := requireManager(actor); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("cycle name required: %w", ErrInvalidInput)
	}
	if _, err := cycleForActor(ctx, s.store, actor, cycleID); err != nil {
		return err
	}
	if err := s.store.RenameCycle(ctx, cycleID, name); err != nil {
		return err
	}
	logActivity(ctx, s.store, actor, "cycle.rename", name)
	return nil
}

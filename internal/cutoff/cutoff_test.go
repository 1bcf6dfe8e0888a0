package cutoff

import (
	"testing"
	"time"

	"github.com/mrahman/messbook/internal/models"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func testConfig() *models.CutoffConfig {
	return &models.CutoffConfig{
		BreakfastCutoff: models.DefaultBreakfastCutoff, // 21:00, previous day
		LunchCutoff:     models.DefaultLunchCutoff,     // 10:00
		DinnerCutoff:    models.DefaultDinnerCutoff,    // 15:00
	}
}

func checkerAt(t *testing.T, tz string, now time.Time) *Checker {
	t.Helper()
	c, err := NewChecker(tz, fixedClock{now: now})
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	return c
}

func TestLocked(t *testing.T) {
	dhaka, err := time.LoadLocation("Asia/Dhaka")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	tests := []struct {
		name string
		slot models.Slot
		date string
		now  time.Time
		want bool
	}{
		{
			name: "breakfast open the evening before",
			slot: models.SlotBreakfast,
			date: "2026-03-10",
			now:  time.Date(2026, 3, 9, 20, 59, 0, 0, dhaka),
			want: false,
		},
		{
			name: "breakfast locks at 21:00 the evening before",
			slot: models.SlotBreakfast,
			date: "2026-03-10",
			now:  time.Date(2026, 3, 9, 21, 0, 1, 0, dhaka),
			want: true,
		},
		{
			name: "breakfast on the morning itself is long locked",
			slot: models.SlotBreakfast,
			date: "2026-03-10",
			now:  time.Date(2026, 3, 10, 7, 0, 0, 0, dhaka),
			want: true,
		},
		{
			name: "lunch open before 10:00 same day",
			slot: models.SlotLunch,
			date: "2026-03-10",
			now:  time.Date(2026, 3, 10, 9, 59, 59, 0, dhaka),
			want: false,
		},
		{
			name: "lunch locked after 10:00 same day",
			slot: models.SlotLunch,
			date: "2026-03-10",
			now:  time.Date(2026, 3, 10, 10, 0, 1, 0, dhaka),
			want: true,
		},
		{
			name: "dinner locked after 15:00 same day",
			slot: models.SlotDinner,
			date: "2026-03-10",
			now:  time.Date(2026, 3, 10, 15, 1, 0, 0, dhaka),
			want: true,
		},
		{
			name: "tomorrow's dinner is wide open",
			slot: models.SlotDinner,
			date: "2026-03-11",
			now:  time.Date(2026, 3, 10, 23, 0, 0, 0, dhaka),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := checkerAt(t, "Asia/Dhaka", tt.now)
			got, err := c.Locked(tt.slot, tt.date, testConfig())
			if err != nil {
				t.Fatalf("Locked: %v", err)
			}
			if got != tt.want {
				t.Errorf("Locked(%s, %s) = %v, want %v", tt.slot, tt.date, got, tt.want)
			}
		})
	}
}

// The comparison happens in the mess's locale regardless of where the
// server clock ticks. 05:00 UTC is 11:00 in Dhaka, past the lunch cutoff.
func TestLockedUsesMessTimezone(t *testing.T) {
	now := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
	c := checkerAt(t, "Asia/Dhaka", now)

	locked, err := c.Locked(models.SlotLunch, "2026-03-10", testConfig())
	if err != nil {
		t.Fatalf("Locked: %v", err)
	}
	if !locked {
		t.Error("lunch should be locked at 11:00 Dhaka time")
	}

	// The same instant in UTC itself is 05:00, well before lunch cutoff.
	utc := checkerAt(t, "UTC", now)
	locked, err = utc.Locked(models.SlotLunch, "2026-03-10", testConfig())
	if err != nil {
		t.Fatalf("Locked: %v", err)
	}
	if locked {
		t.Error("lunch should still be open at 05:00 UTC")
	}
}

func TestLockState(t *testing.T) {
	dhaka, _ := time.LoadLocation("Asia/Dhaka")

	// Midday: breakfast and lunch are gone, dinner still editable.
	c := checkerAt(t, "Asia/Dhaka", time.Date(2026, 3, 10, 12, 0, 0, 0, dhaka))
	breakfast, lunch, dinner, err := c.LockState("2026-03-10", testConfig())
	if err != nil {
		t.Fatalf("LockState: %v", err)
	}
	if !breakfast || !lunch || dinner {
		t.Errorf("LockState = (%v, %v, %v), want (true, true, false)", breakfast, lunch, dinner)
	}
}

func TestLockedErrors(t *testing.T) {
	c := checkerAt(t, "UTC", time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	if _, err := c.Locked(models.SlotLunch, "10-03-2026", testConfig()); err == nil {
		t.Error("expected error for malformed date")
	}
	if _, err := c.Locked(models.Slot("brunch"), "2026-03-10", testConfig()); err == nil {
		t.Error("expected error for unknown slot")
	}

	cfg := testConfig()
	cfg.DinnerCutoff = "25:99"
	if _, err := c.Locked(models.SlotDinner, "2026-03-10", cfg); err == nil {
		t.Error("expected error for malformed cutoff time")
	}

	if _, err := NewChecker("Mars/Olympus", nil); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

package models

// Slot identifies one of the three daily meal slots.
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
)

// ValidSlot reports whether s is one of the three known slots.
func ValidSlot(s Slot) bool {
	return s == SlotBreakfast || s == SlotLunch || s == SlotDinner
}

// MaxGuestsPerSlot caps the guest count recorded for a single slot.
const MaxGuestsPerSlot = 10

// DailyMeal is the per-member, per-date attendance record: one row per
// member per calendar date. Absent rows imply all-zero.
type DailyMeal struct {
	// ID is the unique identifier for the row (UUID format).
	ID string `json:"id"`

	// MessID and CycleID locate the row; MemberID+MealDate is the
	// natural key.
	MessID   string `json:"mess_id"`
	CycleID  string `json:"cycle_id"`
	MemberID string `json:"member_id"`

	// MealDate is the calendar date ("2006-01-02").
	MealDate string `json:"meal_date"`

	// One flag per slot: whether the member ate that meal.
	Breakfast bool `json:"breakfast"`
	Lunch     bool `json:"lunch"`
	Dinner    bool `json:"dinner"`

	// Guest meals per slot, 0..MaxGuestsPerSlot. One explicit field per
	// slot; guests count as full meal units for rate purposes.
	GuestBreakfast int `json:"guest_breakfast"`
	GuestLunch     int `json:"guest_lunch"`
	GuestDinner    int `json:"guest_dinner"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// Units returns the meal units this row contributes: each eaten slot is
// one unit, each guest another.
func (m *DailyMeal) Units() int {
	n := m.GuestBreakfast + m.GuestLunch + m.GuestDinner
	if m.Breakfast {
		n++
	}
	if m.Lunch {
		n++
	}
	if m.Dinner {
		n++
	}
	return n
}

package models

// Mess represents a shared household. It is the tenant boundary: members,
// cycles and every ledger row carry its ID.
type Mess struct {
	// ID is the unique identifier for the mess (UUID format).
	ID string `json:"id"`

	// Name is the display name of the mess.
	Name string `json:"name"`

	// Address is an optional street address.
	Address string `json:"address,omitempty"`

	// CreatedBy is the user ID of the founder (first manager).
	CreatedBy string `json:"created_by"`

	// Timezone is the IANA name of the mess's operating locale
	// (e.g. "Asia/Dhaka"). Meal cutoffs are evaluated in this zone, never
	// in the server's local time.
	Timezone string `json:"timezone"`

	// CreatedAt is the Unix timestamp when the mess was created.
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp of the last change.
	UpdatedAt int64 `json:"updated_at"`
}

// CutoffConfig holds the per-mess meal edit deadlines as "HH:MM" strings
// in the mess's timezone. Breakfast is evaluated against the previous
// calendar day: tomorrow's breakfast must be declared tonight.
type CutoffConfig struct {
	MessID          string `json:"mess_id"`
	BreakfastCutoff string `json:"breakfast_cutoff"`
	LunchCutoff     string `json:"lunch_cutoff"`
	DinnerCutoff    string `json:"dinner_cutoff"`
}

// Default cutoff times, applied when a mess is created.
const (
	DefaultBreakfastCutoff = "21:00"
	DefaultLunchCutoff     = "10:00"
	DefaultDinnerCutoff    = "15:00"
)

// DefaultCutoffConfig returns the stock cutoff configuration for a mess.
func DefaultCutoffConfig(messID string) *CutoffConfig {
	return &CutoffConfig{
		MessID:          messID,
		BreakfastCutoff: DefaultBreakfastCutoff,
		LunchCutoff:     DefaultLunchCutoff,
		DinnerCutoff:    DefaultDinnerCutoff,
	}
}

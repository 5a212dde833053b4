package match

import (
	"fmt"
	"strings"
	"time"
)

// Status is the administrator-controlled lifecycle tag persisted with a match.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
)

// ViewState is the derived state shown to users.
type ViewState string

const (
	ViewUpcoming  ViewState = "upcoming"
	ViewLive      ViewState = "live"
	ViewCompleted ViewState = "completed"
)

// Match is one fixture users can predict on.
type Match struct {
	ID          string
	Team1       string
	Team2       string
	Venue       string
	Description string
	StartsAt    time.Time
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NormalizeStatus(value string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusLive:
		return StatusLive
	case StatusCompleted:
		return StatusCompleted
	default:
		return StatusScheduled
	}
}

func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case StatusScheduled, StatusLive, StatusCompleted:
		return status, nil
	default:
		return "", fmt.Errorf("invalid match status %q", value)
	}
}

// DeriveStatus classifies a match relative to now. Only the start instant
// decides upcoming; after that the stored status decides, and a started match
// that was never marked completed stays live.
func DeriveStatus(m Match, now time.Time) ViewState {
	if m.StartsAt.After(now) {
		return ViewUpcoming
	}
	if m.Status == StatusCompleted {
		return ViewCompleted
	}
	return ViewLive
}

// IsLocked reports whether predictions for the match are frozen.
// The start instant itself is locked.
func IsLocked(m Match, now time.Time) bool {
	return !now.Before(m.StartsAt)
}

func (m Match) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("match id is required")
	}
	if strings.TrimSpace(m.Team1) == "" || strings.TrimSpace(m.Team2) == "" {
		return fmt.Errorf("both team names are required")
	}
	if strings.EqualFold(strings.TrimSpace(m.Team1), strings.TrimSpace(m.Team2)) {
		return fmt.Errorf("teams must be different")
	}
	if m.StartsAt.IsZero() {
		return fmt.Errorf("match start time is required")
	}

	return nil
}

func (m Match) Title() string {
	return m.Team1 + " vs " + m.Team2
}

package prediction

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/platform/id"
)

// RosterSize is the exact number of players in a submitted prediction.
const RosterSize = 5

const StatusPending = "pending"

// SelectedPlayer is the denormalized snapshot of one pick, taken at submission
// time. ActualPoints is only filled later by outcome propagation.
type SelectedPlayer struct {
	PlayerID     string
	Name         string
	Team         string
	Kind         player.MetricKind
	Threshold    float64
	ActualPoints *float64
}

func (s SelectedPlayer) Target() player.Target {
	return player.Target{
		Kind:         s.Kind,
		Threshold:    s.Threshold,
		ActualPoints: s.ActualPoints,
	}
}

// Prediction is one user's roster for one match.
type Prediction struct {
	ID              string
	UserID          string
	UserEmail       string
	MatchID         string
	SelectedPlayers []SelectedPlayer
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Status          string
}

// ID returns the prediction identifier for a (user, match) pair.
func ID(userID, matchID string) string {
	return id.Deterministic("prediction", strings.TrimSpace(userID), strings.TrimSpace(matchID))
}

func (p Prediction) PlayerIDs() []string {
	out := make([]string, 0, len(p.SelectedPlayers))
	for _, s := range p.SelectedPlayers {
		out = append(out, s.PlayerID)
	}
	return out
}

func (p Prediction) Clone() Prediction {
	copied := p
	copied.SelectedPlayers = make([]SelectedPlayer, len(p.SelectedPlayers))
	for i, s := range p.SelectedPlayers {
		if s.ActualPoints != nil {
			actual := *s.ActualPoints
			s.ActualPoints = &actual
		}
		copied.SelectedPlayers[i] = s
	}
	return copied
}

func (p Prediction) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("prediction id is required")
	}
	if p.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if p.MatchID == "" {
		return fmt.Errorf("match id is required")
	}
	if p.ID != ID(p.UserID, p.MatchID) {
		return fmt.Errorf("prediction id does not match user and match")
	}
	if len(p.SelectedPlayers) != RosterSize {
		return fmt.Errorf("prediction must contain exactly %d players, got %d", RosterSize, len(p.SelectedPlayers))
	}

	seen := make(map[string]struct{}, len(p.SelectedPlayers))
	for _, s := range p.SelectedPlayers {
		if s.PlayerID == "" {
			return fmt.Errorf("selected player id is required")
		}
		if _, ok := seen[s.PlayerID]; ok {
			return fmt.Errorf("duplicate selected player %s", s.PlayerID)
		}
		seen[s.PlayerID] = struct{}{}
	}

	return nil
}

// ApplyOutcome copies an observed outcome into the snapshot entries for
// playerID. Threshold and kind stay as they were at submission. It reports
// whether anything changed.
func (p *Prediction) ApplyOutcome(playerID string, actual float64) bool {
	changed := false
	for i := range p.SelectedPlayers {
		s := &p.SelectedPlayers[i]
		if s.PlayerID != playerID {
			continue
		}
		if s.ActualPoints != nil && *s.ActualPoints == actual {
			continue
		}
		value := actual
		s.ActualPoints = &value
		changed = true
	}
	return changed
}

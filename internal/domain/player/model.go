package player

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Role is a cricket playing role.
type Role string

const (
	RoleBatsman      Role = "batsman"
	RoleBowler       Role = "bowler"
	RoleAllRounder   Role = "all-rounder"
	RoleWicketKeeper Role = "wicket-keeper"
)

var AllRoles = map[Role]struct{}{
	RoleBatsman:      {},
	RoleBowler:       {},
	RoleAllRounder:   {},
	RoleWicketKeeper: {},
}

// MetricKind names the statistic a target is measured in.
type MetricKind string

const (
	MetricRuns    MetricKind = "runs"
	MetricWickets MetricKind = "wickets"
)

var KnownMetricKinds = map[MetricKind]struct{}{
	MetricRuns:    {},
	MetricWickets: {},
}

// Target is a player's numeric goal for one match.
type Target struct {
	Kind         MetricKind
	Threshold    float64
	ActualPoints *float64
	IsSelected   bool
}

func (t Target) HasOutcome() bool {
	return t.ActualPoints != nil
}

// Merge applies an administrator edit. An edit without an observed outcome
// keeps the stored one.
func (t Target) Merge(update Target) Target {
	out := update
	if update.ActualPoints == nil && t.ActualPoints != nil {
		actual := *t.ActualPoints
		out.ActualPoints = &actual
	}
	return out
}

// ClearOutcome returns the target back in its ungraded state.
func (t Target) ClearOutcome() Target {
	t.ActualPoints = nil
	return t
}

func (t Target) Validate() error {
	if _, ok := KnownMetricKinds[t.Kind]; !ok {
		return fmt.Errorf("invalid target kind: %s", t.Kind)
	}
	if t.Threshold < 0 {
		return fmt.Errorf("target threshold must be >= 0")
	}
	if t.ActualPoints != nil && *t.ActualPoints < 0 {
		return fmt.Errorf("actual points must be >= 0")
	}
	return nil
}

// Player is a selectable athlete. Targets is keyed by match id.
type Player struct {
	ID        string
	Name      string
	Team      string
	Role      Role
	Targets   map[string]Target
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Player) TargetFor(matchID string) (Target, bool) {
	if p.Targets == nil {
		return Target{}, false
	}
	t, ok := p.Targets[matchID]
	return t, ok
}

// IsCandidateFor reports whether the player can be picked for the match.
func (p Player) IsCandidateFor(matchID string) bool {
	_, ok := p.TargetFor(matchID)
	return ok
}

func (p Player) Clone() Player {
	copied := p
	if p.Targets != nil {
		copied.Targets = make(map[string]Target, len(p.Targets))
		for matchID, t := range p.Targets {
			if t.ActualPoints != nil {
				actual := *t.ActualPoints
				t.ActualPoints = &actual
			}
			copied.Targets[matchID] = t
		}
	}
	return copied
}

func (p Player) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("player id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("player name is required")
	}
	if strings.TrimSpace(p.Team) == "" {
		return fmt.Errorf("player team is required")
	}
	if _, ok := AllRoles[p.Role]; !ok {
		return fmt.Errorf("invalid player role: %s", p.Role)
	}
	for matchID, t := range p.Targets {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("target for match %s: %w", matchID, err)
		}
	}

	return nil
}

// CandidatesFor keeps the players that have a target for matchID, ordered by
// name then id.
func CandidatesFor(players []Player, matchID string) []Player {
	out := make([]Player, 0, len(players))
	for _, p := range players {
		if p.IsCandidateFor(matchID) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func IndexByID(players []Player) map[string]Player {
	out := make(map[string]Player, len(players))
	for _, p := range players {
		out[p.ID] = p
	}
	return out
}

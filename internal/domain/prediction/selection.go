package prediction

import (
	"time"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
)

// Candidate is a player that has a target for the match being predicted.
type Candidate struct {
	PlayerID string
	Name     string
	Team     string
	Role     player.Role
	Target   player.Target
}

// Selection tracks a roster being built for one match. Selected and available
// always partition the candidate set.
type Selection struct {
	matchID    string
	startsAt   time.Time
	selected   []Candidate
	available  []Candidate
	submitting bool
}

// NewSelection builds a selection over the candidates for m. Players of an
// existing prediction are preselected in their stored order when they are
// still candidates.
func NewSelection(m match.Match, candidates []player.Player, existing *Prediction) *Selection {
	s := &Selection{
		matchID:  m.ID,
		startsAt: m.StartsAt,
	}

	byID := make(map[string]Candidate, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, p := range candidates {
		target, ok := p.TargetFor(m.ID)
		if !ok {
			continue
		}
		if _, dup := byID[p.ID]; dup {
			continue
		}
		byID[p.ID] = Candidate{
			PlayerID: p.ID,
			Name:     p.Name,
			Team:     p.Team,
			Role:     p.Role,
			Target:   target,
		}
		order = append(order, p.ID)
	}

	picked := make(map[string]struct{}, RosterSize)
	if existing != nil {
		for _, sp := range existing.SelectedPlayers {
			c, ok := byID[sp.PlayerID]
			if !ok || len(s.selected) >= RosterSize {
				continue
			}
			if _, dup := picked[sp.PlayerID]; dup {
				continue
			}
			picked[sp.PlayerID] = struct{}{}
			s.selected = append(s.selected, c)
		}
	}

	for _, playerID := range order {
		if _, ok := picked[playerID]; ok {
			continue
		}
		s.available = append(s.available, byID[playerID])
	}

	return s
}

func (s *Selection) MatchID() string {
	return s.matchID
}

func (s *Selection) Locked(now time.Time) bool {
	return match.IsLocked(match.Match{StartsAt: s.startsAt}, now)
}

func (s *Selection) Selected() []Candidate {
	return append([]Candidate(nil), s.selected...)
}

func (s *Selection) Available() []Candidate {
	return append([]Candidate(nil), s.available...)
}

func (s *Selection) IsCandidate(playerID string) bool {
	return indexOf(s.selected, playerID) >= 0 || indexOf(s.available, playerID) >= 0
}

// Select moves a player from available to the end of selected. It is a no-op
// when the roster is full, the match is locked or the player is not available.
func (s *Selection) Select(playerID string, now time.Time) bool {
	if s.Locked(now) || len(s.selected) >= RosterSize {
		return false
	}
	idx := indexOf(s.available, playerID)
	if idx < 0 {
		return false
	}

	c := s.available[idx]
	s.available = append(s.available[:idx], s.available[idx+1:]...)
	s.selected = append(s.selected, c)
	return true
}

// Remove moves a player from selected to the end of available. It is a no-op
// when the match is locked or the player is not selected.
func (s *Selection) Remove(playerID string, now time.Time) bool {
	if s.Locked(now) {
		return false
	}
	idx := indexOf(s.selected, playerID)
	if idx < 0 {
		return false
	}

	c := s.selected[idx]
	s.selected = append(s.selected[:idx], s.selected[idx+1:]...)
	s.available = append(s.available, c)
	return true
}

func (s *Selection) CanSubmit(now time.Time) bool {
	return len(s.selected) == RosterSize && !s.Locked(now) && !s.submitting
}

// BeginSubmit marks a submission in flight. It refuses when CanSubmit is false.
func (s *Selection) BeginSubmit(now time.Time) bool {
	if !s.CanSubmit(now) {
		return false
	}
	s.submitting = true
	return true
}

func (s *Selection) EndSubmit() {
	s.submitting = false
}

func (s *Selection) Submitting() bool {
	return s.submitting
}

// Snapshot copies name, team, kind and threshold of every selected player.
// Observed outcomes are not copied.
func (s *Selection) Snapshot() []SelectedPlayer {
	out := make([]SelectedPlayer, 0, len(s.selected))
	for _, c := range s.selected {
		out = append(out, SelectedPlayer{
			PlayerID:  c.PlayerID,
			Name:      c.Name,
			Team:      c.Team,
			Kind:      c.Target.Kind,
			Threshold: c.Target.Threshold,
		})
	}
	return out
}

func indexOf(items []Candidate, playerID string) int {
	for i, c := range items {
		if c.PlayerID == playerID {
			return i
		}
	}
	return -1
}

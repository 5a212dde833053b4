package scoring

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
)

// Source names where a pick's target is read from when grading.
type Source string

const (
	SourceLive     Source = "live"
	SourceSnapshot Source = "snapshot"
)

// ParseSource maps a query value to a Source. Empty means live.
func ParseSource(value string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(value))) {
	case "", SourceLive:
		return SourceLive, nil
	case SourceSnapshot:
		return SourceSnapshot, nil
	default:
		return "", fmt.Errorf("unknown scoring source: %s", value)
	}
}

// TargetSource resolves the target a pick is graded against.
type TargetSource interface {
	TargetFor(pick prediction.SelectedPlayer) (player.Target, bool)
}

type liveSource struct {
	matchID string
	byID    map[string]player.Player
}

// LiveSource grades against the players' current targets for matchID. Picks
// whose player is gone or has no target for the match are ungraded.
func LiveSource(players []player.Player, matchID string) TargetSource {
	return liveSource{matchID: matchID, byID: player.IndexByID(players)}
}

func (s liveSource) TargetFor(pick prediction.SelectedPlayer) (player.Target, bool) {
	p, ok := s.byID[pick.PlayerID]
	if !ok {
		return player.Target{}, false
	}
	return p.TargetFor(s.matchID)
}

type snapshotSource struct{}

// SnapshotSource grades against the target copied into the prediction.
func SnapshotSource() TargetSource {
	return snapshotSource{}
}

func (snapshotSource) TargetFor(pick prediction.SelectedPlayer) (player.Target, bool) {
	return pick.Target(), true
}

// IsCorrect grades one target. A target without an observed outcome is not
// graded. The threshold is inclusive.
func IsCorrect(target player.Target) (correct bool, graded bool) {
	if target.ActualPoints == nil {
		return false, false
	}
	return *target.ActualPoints >= target.Threshold, true
}

type PickScore struct {
	PlayerID  string
	Kind      player.MetricKind
	Threshold float64
	Actual    *float64
	Graded    bool
	Correct   bool
}

type Score struct {
	Source  Source
	Correct int
	Graded  int
	Total   int
	Picks   []PickScore
}

// Evaluate grades every pick of p against source.
func Evaluate(p prediction.Prediction, source TargetSource) Score {
	score := Score{
		Source: sourceName(source),
		Total:  len(p.SelectedPlayers),
		Picks:  make([]PickScore, 0, len(p.SelectedPlayers)),
	}

	for _, pick := range p.SelectedPlayers {
		ps := PickScore{PlayerID: pick.PlayerID}
		target, ok := source.TargetFor(pick)
		if ok {
			ps.Kind = target.Kind
			ps.Threshold = target.Threshold
			if target.ActualPoints != nil {
				actual := *target.ActualPoints
				ps.Actual = &actual
			}
			ps.Correct, ps.Graded = IsCorrect(target)
		}
		if ps.Graded {
			score.Graded++
		}
		if ps.Correct {
			score.Correct++
		}
		score.Picks = append(score.Picks, ps)
	}

	return score
}

func CountCorrect(p prediction.Prediction, source TargetSource) int {
	return Evaluate(p, source).Correct
}

func sourceName(source TargetSource) Source {
	switch source.(type) {
	case snapshotSource:
		return SourceSnapshot
	default:
		return SourceLive
	}
}

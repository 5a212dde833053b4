package memory

import (
	"time"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
)

const (
	MatchIDIndiaAustralia   = "ind-aus-2026-t20-01"
	MatchIDEnglandPakistan  = "eng-pak-2026-t20-02"
	MatchIDSouthAfricaNZ    = "rsa-nz-2026-t20-03"
	MatchIDIndiaEnglandNext = "ind-eng-2026-t20-04"
)

// SeedMatches returns demo fixtures placed around now: one completed, one live
// and two upcoming.
func SeedMatches(now time.Time) []match.Match {
	now = now.UTC().Truncate(time.Minute)
	return []match.Match{
		{
			ID:          MatchIDSouthAfricaNZ,
			Team1:       "South Africa",
			Team2:       "New Zealand",
			Venue:       "Newlands, Cape Town",
			Description: "T20 series, match 3",
			StartsAt:    now.Add(-26 * time.Hour),
			Status:      match.StatusCompleted,
			CreatedAt:   now.Add(-72 * time.Hour),
			UpdatedAt:   now.Add(-22 * time.Hour),
		},
		{
			ID:          MatchIDEnglandPakistan,
			Team1:       "England",
			Team2:       "Pakistan",
			Venue:       "Lord's, London",
			Description: "T20 series, match 2",
			StartsAt:    now.Add(-90 * time.Minute),
			Status:      match.StatusLive,
			CreatedAt:   now.Add(-72 * time.Hour),
			UpdatedAt:   now.Add(-90 * time.Minute),
		},
		{
			ID:          MatchIDIndiaAustralia,
			Team1:       "India",
			Team2:       "Australia",
			Venue:       "Wankhede Stadium, Mumbai",
			Description: "T20 series, match 1",
			StartsAt:    now.Add(6 * time.Hour),
			Status:      match.StatusScheduled,
			CreatedAt:   now.Add(-72 * time.Hour),
			UpdatedAt:   now.Add(-72 * time.Hour),
		},
		{
			ID:          MatchIDIndiaEnglandNext,
			Team1:       "India",
			Team2:       "England",
			Venue:       "Eden Gardens, Kolkata",
			Description: "T20 series, match 4",
			StartsAt:    now.Add(54 * time.Hour),
			Status:      match.StatusScheduled,
			CreatedAt:   now.Add(-72 * time.Hour),
			UpdatedAt:   now.Add(-72 * time.Hour),
		},
	}
}

func runs(threshold float64) player.Target {
	return player.Target{Kind: player.MetricRuns, Threshold: threshold, IsSelected: true}
}

func wickets(threshold float64) player.Target {
	return player.Target{Kind: player.MetricWickets, Threshold: threshold, IsSelected: true}
}

func graded(t player.Target, actual float64) player.Target {
	t.ActualPoints = &actual
	return t
}

func SeedPlayers(now time.Time) []player.Player {
	createdAt := now.UTC().Truncate(time.Minute).Add(-72 * time.Hour)
	seed := []player.Player{
		{ID: "ind-bat-01", Name: "Rohit Sharma", Team: "India", Role: player.RoleBatsman, Targets: map[string]player.Target{
			MatchIDIndiaAustralia: runs(35), MatchIDIndiaEnglandNext: runs(30),
		}},
		{ID: "ind-bat-02", Name: "Virat Kohli", Team: "India", Role: player.RoleBatsman, Targets: map[string]player.Target{
			MatchIDIndiaAustralia: runs(40), MatchIDIndiaEnglandNext: runs(40),
		}},
		{ID: "ind-wk-01", Name: "Rishabh Pant", Team: "India", Role: player.RoleWicketKeeper, Targets: map[string]player.Target{
			MatchIDIndiaAustralia: runs(25),
		}},
		{ID: "ind-ar-01", Name: "Hardik Pandya", Team: "India", Role: player.RoleAllRounder, Targets: map[string]player.Target{
			MatchIDIndiaAustralia: wickets(1), MatchIDIndiaEnglandNext: runs(20),
		}},
		{ID: "ind-bowl-01", Name: "Jasprit Bumrah", Team: "India", Role: player.RoleBowler, Targets: map[string]player.Target{
			MatchIDIndiaAustralia: wickets(2), MatchIDIndiaEnglandNext: wickets(2),
		}},
		{ID: "aus-bat-01", Name: "Travis Head", Team: "Australia", Role: player.RoleBatsman, Targets: map[string]player.Target{
			MatchIDIndiaAustralia: runs(30),
		}},
		{ID: "aus-ar-01", Name: "Glenn Maxwell", Team: "Australia", Role: player.RoleAllRounder, Targets: map[string]player.Target{
			MatchIDIndiaAustralia: runs(25),
		}},
		{ID: "aus-bowl-01", Name: "Pat Cummins", Team: "Australia", Role: player.RoleBowler, Targets: map[string]player.Target{
			MatchIDIndiaAustralia: wickets(2),
		}},
		{ID: "eng-bat-01", Name: "Jos Buttler", Team: "England", Role: player.RoleWicketKeeper, Targets: map[string]player.Target{
			MatchIDEnglandPakistan: runs(35), MatchIDIndiaEnglandNext: runs(35),
		}},
		{ID: "eng-bat-02", Name: "Phil Salt", Team: "England", Role: player.RoleBatsman, Targets: map[string]player.Target{
			MatchIDEnglandPakistan: runs(30),
		}},
		{ID: "eng-bowl-01", Name: "Jofra Archer", Team: "England", Role: player.RoleBowler, Targets: map[string]player.Target{
			MatchIDEnglandPakistan: wickets(2), MatchIDIndiaEnglandNext: wickets(2),
		}},
		{ID: "pak-bat-01", Name: "Babar Azam", Team: "Pakistan", Role: player.RoleBatsman, Targets: map[string]player.Target{
			MatchIDEnglandPakistan: runs(40),
		}},
		{ID: "pak-bowl-01", Name: "Shaheen Afridi", Team: "Pakistan", Role: player.RoleBowler, Targets: map[string]player.Target{
			MatchIDEnglandPakistan: wickets(2),
		}},
		{ID: "rsa-bat-01", Name: "Aiden Markram", Team: "South Africa", Role: player.RoleBatsman, Targets: map[string]player.Target{
			MatchIDSouthAfricaNZ: graded(runs(30), 42),
		}},
		{ID: "rsa-wk-01", Name: "Heinrich Klaasen", Team: "South Africa", Role: player.RoleWicketKeeper, Targets: map[string]player.Target{
			MatchIDSouthAfricaNZ: graded(runs(30), 18),
		}},
		{ID: "rsa-bowl-01", Name: "Kagiso Rabada", Team: "South Africa", Role: player.RoleBowler, Targets: map[string]player.Target{
			MatchIDSouthAfricaNZ: graded(wickets(2), 3),
		}},
		{ID: "nz-bat-01", Name: "Devon Conway", Team: "New Zealand", Role: player.RoleBatsman, Targets: map[string]player.Target{
			MatchIDSouthAfricaNZ: graded(runs(30), 30),
		}},
		{ID: "nz-ar-01", Name: "Mitchell Santner", Team: "New Zealand", Role: player.RoleAllRounder, Targets: map[string]player.Target{
			MatchIDSouthAfricaNZ: graded(wickets(1), 0),
		}},
		{ID: "nz-bowl-01", Name: "Trent Boult", Team: "New Zealand", Role: player.RoleBowler, Targets: map[string]player.Target{
			MatchIDSouthAfricaNZ: wickets(2),
		}},
	}

	for i := range seed {
		seed[i].CreatedAt = createdAt
		seed[i].UpdatedAt = createdAt
	}
	return seed
}

package firestore

import (
	"time"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
)

type matchDocument struct {
	Team1       string    `firestore:"team1"`
	Team2       string    `firestore:"team2"`
	Venue       string    `firestore:"venue"`
	Description string    `firestore:"description"`
	Timestamp   time.Time `firestore:"timestamp"`
	Status      string    `firestore:"status"`
	CreatedAt   time.Time `firestore:"createdAt,omitempty"`
	UpdatedAt   time.Time `firestore:"updatedAt,omitempty"`
}

type targetDocument struct {
	Type         string   `firestore:"type"`
	Target       float64  `firestore:"target"`
	ActualPoints *float64 `firestore:"actualPoints"`
	IsSelected   bool     `firestore:"isSelected"`
}

type playerDocument struct {
	Name         string                    `firestore:"name"`
	Team         string                    `firestore:"team"`
	Role         string                    `firestore:"role"`
	MatchTargets map[string]targetDocument `firestore:"matchTargets"`
	CreatedAt    time.Time                 `firestore:"createdAt,omitempty"`
	UpdatedAt    time.Time                 `firestore:"updatedAt,omitempty"`
}

type selectedPlayerDocument struct {
	PlayerID     string   `firestore:"id"`
	Name         string   `firestore:"name"`
	Team         string   `firestore:"team"`
	Type         string   `firestore:"type"`
	Target       float64  `firestore:"target"`
	ActualPoints *float64 `firestore:"actualPoints,omitempty"`
}

type predictionDocument struct {
	UserID          string                   `firestore:"userId"`
	UserEmail       string                   `firestore:"userEmail"`
	MatchID         string                   `firestore:"matchId"`
	SelectedPlayers []selectedPlayerDocument `firestore:"selectedPlayers"`
	CreatedAt       time.Time                `firestore:"createdAt"`
	UpdatedAt       time.Time                `firestore:"updatedAt"`
	Status          string                   `firestore:"status"`
}

func matchToDocument(m match.Match) matchDocument {
	return matchDocument{
		Team1:       m.Team1,
		Team2:       m.Team2,
		Venue:       m.Venue,
		Description: m.Description,
		Timestamp:   m.StartsAt.UTC(),
		Status:      string(match.NormalizeStatus(string(m.Status))),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

func matchFromDocument(id string, doc matchDocument) match.Match {
	return match.Match{
		ID:          id,
		Team1:       doc.Team1,
		Team2:       doc.Team2,
		Venue:       doc.Venue,
		Description: doc.Description,
		StartsAt:    doc.Timestamp.UTC(),
		Status:      match.NormalizeStatus(doc.Status),
		CreatedAt:   doc.CreatedAt.UTC(),
		UpdatedAt:   doc.UpdatedAt.UTC(),
	}
}

func targetToDocument(t player.Target) targetDocument {
	return targetDocument{
		Type:         string(t.Kind),
		Target:       t.Threshold,
		ActualPoints: t.ActualPoints,
		IsSelected:   t.IsSelected,
	}
}

func playerToDocument(p player.Player) playerDocument {
	targets := make(map[string]targetDocument, len(p.Targets))
	for matchID, t := range p.Targets {
		targets[matchID] = targetToDocument(t)
	}
	return playerDocument{
		Name:         p.Name,
		Team:         p.Team,
		Role:         string(p.Role),
		MatchTargets: targets,
		CreatedAt:    p.CreatedAt.UTC(),
		UpdatedAt:    p.UpdatedAt.UTC(),
	}
}

func playerFromDocument(id string, doc playerDocument) player.Player {
	var targets map[string]player.Target
	if len(doc.MatchTargets) > 0 {
		targets = make(map[string]player.Target, len(doc.MatchTargets))
		for matchID, t := range doc.MatchTargets {
			targets[matchID] = player.Target{
				Kind:         player.MetricKind(t.Type),
				Threshold:    t.Target,
				ActualPoints: t.ActualPoints,
				IsSelected:   t.IsSelected,
			}
		}
	}
	return player.Player{
		ID:        id,
		Name:      doc.Name,
		Team:      doc.Team,
		Role:      player.Role(doc.Role),
		Targets:   targets,
		CreatedAt: doc.CreatedAt.UTC(),
		UpdatedAt: doc.UpdatedAt.UTC(),
	}
}

func predictionToDocument(p prediction.Prediction) predictionDocument {
	selected := make([]selectedPlayerDocument, 0, len(p.SelectedPlayers))
	for _, s := range p.SelectedPlayers {
		selected = append(selected, selectedPlayerDocument{
			PlayerID:     s.PlayerID,
			Name:         s.Name,
			Team:         s.Team,
			Type:         string(s.Kind),
			Target:       s.Threshold,
			ActualPoints: s.ActualPoints,
		})
	}
	status := p.Status
	if status == "" {
		status = prediction.StatusPending
	}
	return predictionDocument{
		UserID:          p.UserID,
		UserEmail:       p.UserEmail,
		MatchID:         p.MatchID,
		SelectedPlayers: selected,
		CreatedAt:       p.CreatedAt.UTC(),
		UpdatedAt:       p.UpdatedAt.UTC(),
		Status:          status,
	}
}

func predictionFromDocument(id string, doc predictionDocument) prediction.Prediction {
	selected := make([]prediction.SelectedPlayer, 0, len(doc.SelectedPlayers))
	for _, s := range doc.SelectedPlayers {
		selected = append(selected, prediction.SelectedPlayer{
			PlayerID:     s.PlayerID,
			Name:         s.Name,
			Team:         s.Team,
			Kind:         player.MetricKind(s.Type),
			Threshold:    s.Target,
			ActualPoints: s.ActualPoints,
		})
	}
	return prediction.Prediction{
		ID:              id,
		UserID:          doc.UserID,
		UserEmail:       doc.UserEmail,
		MatchID:         doc.MatchID,
		SelectedPlayers: selected,
		CreatedAt:       doc.CreatedAt.UTC(),
		UpdatedAt:       doc.UpdatedAt.UTC(),
		Status:          doc.Status,
	}
}

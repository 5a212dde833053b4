package httpapi

import (
	"time"

	"github.com/riskibarqy/fantasy-prediction/internal/domain/match"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/player"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-prediction/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-prediction/internal/usecase"
)

type submitPredictionRequest struct {
	PlayerIDs []string `json:"playerIds" validate:"max=20,dive,required,max=64"`
}

type createMatchRequest struct {
	ID          string `json:"id" validate:"omitempty,max=64"`
	Team1       string `json:"team1" validate:"required,max=100"`
	Team2       string `json:"team2" validate:"required,max=100"`
	Venue       string `json:"venue" validate:"max=200"`
	Description string `json:"description" validate:"max=1000"`
	StartsAt    string `json:"startsAt" validate:"required"`
	Status      string `json:"status" validate:"omitempty,oneof=scheduled live completed"`
}

type setMatchStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled live completed"`
}

type createPlayerRequest struct {
	ID   string `json:"id" validate:"omitempty,max=64"`
	Name string `json:"name" validate:"required,max=100"`
	Team string `json:"team" validate:"required,max=100"`
	Role string `json:"role" validate:"required,oneof=batsman bowler all-rounder wicket-keeper"`
}

type updatePlayerRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Team string `json:"team" validate:"required,max=100"`
	Role string `json:"role" validate:"required,oneof=batsman bowler all-rounder wicket-keeper"`
}

type setTargetRequest struct {
	Type         string   `json:"type" validate:"required,max=32"`
	Target       *float64 `json:"target" validate:"required,gte=0"`
	ActualPoints *float64 `json:"actualPoints" validate:"omitempty,gte=0"`
	IsSelected   bool     `json:"isSelected"`
	// ClearActualPoints resets a recorded outcome. It cannot be combined
	// with actualPoints.
	ClearActualPoints bool `json:"clearActualPoints"`
}

type matchDTO struct {
	ID          string `json:"id"`
	Team1       string `json:"team1"`
	Team2       string `json:"team2"`
	Venue       string `json:"venue"`
	Description string `json:"description,omitempty"`
	StartsAt    string `json:"startsAt"`
	Status      string `json:"status"`
	State       string `json:"state"`
	Locked      bool   `json:"locked"`
}

type targetDTO struct {
	Type         string   `json:"type"`
	Target       float64  `json:"target"`
	ActualPoints *float64 `json:"actualPoints,omitempty"`
	IsSelected   bool     `json:"isSelected"`
}

type candidateDTO struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Team   string    `json:"team"`
	Role   string    `json:"role"`
	Target targetDTO `json:"target"`
}

type playerDTO struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Team         string               `json:"team"`
	Role         string               `json:"role"`
	MatchTargets map[string]targetDTO `json:"matchTargets"`
	UpdatedAt    string               `json:"updatedAt"`
}

type adminPlayerDTO struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Team   string     `json:"team"`
	Role   string     `json:"role"`
	Target *targetDTO `json:"target"`
}

type setTargetResultDTO struct {
	Player     playerDTO `json:"player"`
	Target     targetDTO `json:"target"`
	Propagated int       `json:"propagated"`
}

type selectedPlayerDTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Team         string   `json:"team"`
	Type         string   `json:"type"`
	Target       float64  `json:"target"`
	ActualPoints *float64 `json:"actualPoints,omitempty"`
}

type predictionDTO struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	UserEmail       string              `json:"userEmail"`
	MatchID         string              `json:"matchId"`
	SelectedPlayers []selectedPlayerDTO `json:"selectedPlayers"`
	CreatedAt       string              `json:"createdAt"`
	UpdatedAt       string              `json:"updatedAt"`
	Status          string              `json:"status"`
}

type pickScoreDTO struct {
	PlayerID string   `json:"playerId"`
	Type     string   `json:"type"`
	Target   float64  `json:"target"`
	Actual   *float64 `json:"actual,omitempty"`
	Graded   bool     `json:"graded"`
	Correct  bool     `json:"correct"`
}

type scoreDTO struct {
	Source  string         `json:"source"`
	Correct int            `json:"correct"`
	Graded  int            `json:"graded"`
	Total   int            `json:"total"`
	Picks   []pickScoreDTO `json:"picks"`
}

type selectionDTO struct {
	Match      matchDTO       `json:"match"`
	Selected   []candidateDTO `json:"selected"`
	Available  []candidateDTO `json:"available"`
	CanSubmit  bool           `json:"canSubmit"`
	Prediction *predictionDTO `json:"prediction"`
	Score      *scoreDTO      `json:"score"`
}

type predictionViewDTO struct {
	Prediction predictionDTO `json:"prediction"`
	Match      *matchDTO     `json:"match"`
	Score      scoreDTO      `json:"score"`
}

type submitResultDTO struct {
	Applied    bool           `json:"applied"`
	Reason     string         `json:"reason,omitempty"`
	Prediction *predictionDTO `json:"prediction"`
}

type dashboardDTO struct {
	Upcoming     int       `json:"upcoming"`
	Live         int       `json:"live"`
	Completed    int       `json:"completed"`
	Predictions  int       `json:"predictions"`
	CorrectPicks int       `json:"correctPicks"`
	GradedPicks  int       `json:"gradedPicks"`
	NextMatch    *matchDTO `json:"nextMatch"`
}

func formatTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

func matchViewToDTO(v usecase.MatchView) matchDTO {
	return matchDTO{
		ID:          v.Match.ID,
		Team1:       v.Match.Team1,
		Team2:       v.Match.Team2,
		Venue:       v.Match.Venue,
		Description: v.Match.Description,
		StartsAt:    formatTime(v.Match.StartsAt),
		Status:      string(v.Match.Status),
		State:       string(v.State),
		Locked:      v.Locked,
	}
}

func matchToDTO(m match.Match, now time.Time) matchDTO {
	return matchViewToDTO(usecase.MatchView{
		Match:  m,
		State:  match.DeriveStatus(m, now),
		Locked: match.IsLocked(m, now),
	})
}

func targetToDTO(t player.Target) targetDTO {
	return targetDTO{
		Type:         string(t.Kind),
		Target:       t.Threshold,
		ActualPoints: t.ActualPoints,
		IsSelected:   t.IsSelected,
	}
}

func candidatesToDTO(items []prediction.Candidate) []candidateDTO {
	out := make([]candidateDTO, 0, len(items))
	for _, c := range items {
		out = append(out, candidateDTO{
			ID:     c.PlayerID,
			Name:   c.Name,
			Team:   c.Team,
			Role:   string(c.Role),
			Target: targetToDTO(c.Target),
		})
	}
	return out
}

// playersToCandidateDTO projects each player onto its target for matchID.
// Callers pass players that already have one.
func playersToCandidateDTO(items []player.Player, matchID string) []candidateDTO {
	out := make([]candidateDTO, 0, len(items))
	for _, p := range items {
		t, _ := p.TargetFor(matchID)
		out = append(out, candidateDTO{
			ID:     p.ID,
			Name:   p.Name,
			Team:   p.Team,
			Role:   string(p.Role),
			Target: targetToDTO(t),
		})
	}
	return out
}

func playerToDTO(p player.Player) playerDTO {
	targets := make(map[string]targetDTO, len(p.Targets))
	for matchID, t := range p.Targets {
		targets[matchID] = targetToDTO(t)
	}

	return playerDTO{
		ID:           p.ID,
		Name:         p.Name,
		Team:         p.Team,
		Role:         string(p.Role),
		MatchTargets: targets,
		UpdatedAt:    formatTime(p.UpdatedAt),
	}
}

func adminPlayerToDTO(v usecase.AdminPlayerView) adminPlayerDTO {
	out := adminPlayerDTO{
		ID:   v.Player.ID,
		Name: v.Player.Name,
		Team: v.Player.Team,
		Role: string(v.Player.Role),
	}
	if v.Target != nil {
		t := targetToDTO(*v.Target)
		out.Target = &t
	}
	return out
}

func predictionToDTO(p prediction.Prediction) predictionDTO {
	selected := make([]selectedPlayerDTO, 0, len(p.SelectedPlayers))
	for _, s := range p.SelectedPlayers {
		selected = append(selected, selectedPlayerDTO{
			ID:           s.PlayerID,
			Name:         s.Name,
			Team:         s.Team,
			Type:         string(s.Kind),
			Target:       s.Threshold,
			ActualPoints: s.ActualPoints,
		})
	}

	return predictionDTO{
		ID:              p.ID,
		UserID:          p.UserID,
		UserEmail:       p.UserEmail,
		MatchID:         p.MatchID,
		SelectedPlayers: selected,
		CreatedAt:       formatTime(p.CreatedAt),
		UpdatedAt:       formatTime(p.UpdatedAt),
		Status:          p.Status,
	}
}

func scoreToDTO(s scoring.Score) scoreDTO {
	picks := make([]pickScoreDTO, 0, len(s.Picks))
	for _, pick := range s.Picks {
		picks = append(picks, pickScoreDTO{
			PlayerID: pick.PlayerID,
			Type:     string(pick.Kind),
			Target:   pick.Threshold,
			Actual:   pick.Actual,
			Graded:   pick.Graded,
			Correct:  pick.Correct,
		})
	}

	return scoreDTO{
		Source:  string(s.Source),
		Correct: s.Correct,
		Graded:  s.Graded,
		Total:   s.Total,
		Picks:   picks,
	}
}

func selectionToDTO(v usecase.SelectionView) selectionDTO {
	out := selectionDTO{
		Match:     matchViewToDTO(v.Match),
		Selected:  candidatesToDTO(v.Selected),
		Available: candidatesToDTO(v.Available),
		CanSubmit: v.CanSubmit,
	}
	if v.Prediction != nil {
		p := predictionToDTO(*v.Prediction)
		out.Prediction = &p
	}
	if v.Score != nil {
		s := scoreToDTO(*v.Score)
		out.Score = &s
	}
	return out
}

func predictionViewToDTO(v usecase.PredictionView, now time.Time) predictionViewDTO {
	out := predictionViewDTO{
		Prediction: predictionToDTO(v.Prediction),
		Score:      scoreToDTO(v.Score),
	}
	if v.Match != nil {
		m := matchToDTO(*v.Match, now)
		out.Match = &m
	}
	return out
}

func predictionViewsToDTO(items []usecase.PredictionView, now time.Time) []predictionViewDTO {
	out := make([]predictionViewDTO, 0, len(items))
	for _, item := range items {
		out = append(out, predictionViewToDTO(item, now))
	}
	return out
}

func submitResultToDTO(v usecase.SubmitResult) submitResultDTO {
	out := submitResultDTO{Applied: v.Applied, Reason: v.Reason}
	if v.Prediction != nil {
		p := predictionToDTO(*v.Prediction)
		out.Prediction = &p
	}
	return out
}

func dashboardToDTO(d usecase.Dashboard) dashboardDTO {
	out := dashboardDTO{
		Upcoming:     d.Upcoming,
		Live:         d.Live,
		Completed:    d.Completed,
		Predictions:  d.Predictions,
		CorrectPicks: d.CorrectPicks,
		GradedPicks:  d.GradedPicks,
	}
	if d.NextMatch != nil {
		m := matchViewToDTO(*d.NextMatch)
		out.NextMatch = &m
	}
	return out
}

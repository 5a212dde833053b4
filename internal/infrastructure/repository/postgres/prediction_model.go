package postgres

import "time"

type predictionTableModel struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	UserEmail       string    `db:"user_email"`
	MatchID         string    `db:"match_id"`
	SelectedPlayers string    `db:"selected_players"`
	Status          string    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// selectedPlayerDocument is the JSONB shape of one pick.
type selectedPlayerDocument struct {
	PlayerID     string   `json:"id"`
	Name         string   `json:"name"`
	Team         string   `json:"team"`
	Type         string   `json:"type"`
	Target       float64  `json:"target"`
	ActualPoints *float64 `json:"actualPoints,omitempty"`
}

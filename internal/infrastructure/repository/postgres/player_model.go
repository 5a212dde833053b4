package postgres

import (
	"database/sql"
	"time"
)

type playerTableModel struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Team      string    `db:"team"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type playerTargetTableModel struct {
	PlayerID     string          `db:"player_id"`
	MatchID      string          `db:"match_id"`
	Kind         string          `db:"kind"`
	Threshold    float64         `db:"threshold"`
	ActualPoints sql.NullFloat64 `db:"actual_points"`
	IsSelected   bool            `db:"is_selected"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

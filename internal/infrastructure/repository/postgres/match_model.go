package postgres

import "time"

type matchTableModel struct {
	ID          string    `db:"id"`
	Team1       string    `db:"team1"`
	Team2       string    `db:"team2"`
	Venue       string    `db:"venue"`
	Description string    `db:"description"`
	StartsAt    time.Time `db:"starts_at"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

package models

import "fmt"

// Game is one scheduled matchup with its betting line.
// Spread is quoted for the home team, negative when the home team is favored.
type Game struct {
	ID       string  `json:"id" validate:"required"`
	HomeTeam string  `json:"home" validate:"required"`
	AwayTeam string  `json:"visitor" validate:"required"`
	Spread   float64 `json:"spread"`
	Total    float64 `json:"total" validate:"gte=0"`
}

// String returns the matchup in "AWAY @ HOME" form
func (g Game) String() string {
	return fmt.Sprintf("%s @ %s", g.AwayTeam, g.HomeTeam)
}

// Validate checks the identifying fields of a game
func (g Game) Validate() error {
	if g.ID == "" {
		return ErrGameIDRequired
	}
	if g.HomeTeam == "" || g.AwayTeam == "" {
		return ErrTeamRequired
	}
	return nil
}

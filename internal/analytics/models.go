package analytics

// PlayerSummary aggregates one player's archived games.
type PlayerSummary struct {
	PlayerName   string  `json:"player_name"`
	GamesPlayed  int     `json:"games_played"`
	TotalScore   int     `json:"total_score"`
	BestScore    int     `json:"best_score"`
	AverageScore float64 `json:"average_score"`
	// Fastest and mean of the per-game best reactions. Games without a
	// valid reaction are left out of both.
	BestReaction    *float64 `json:"best_reaction"`
	AverageReaction *float64 `json:"average_reaction"`
	Badges          []Badge  `json:"badges"`
}

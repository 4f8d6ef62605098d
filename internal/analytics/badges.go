package analytics

type BadgeID string

const (
	BadgeLightning  BadgeID = "lightning"
	BadgeSpeedDemon BadgeID = "speed_demon"
	BadgeCenturion  BadgeID = "centurion"
	BadgeVeteran    BadgeID = "veteran"
)

type Badge struct {
	ID          BadgeID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

var AllBadges = map[BadgeID]Badge{
	BadgeLightning:  {ID: BadgeLightning, Name: "Lightning", Description: "A valid reaction under 150ms", Icon: "⚡"},
	BadgeSpeedDemon: {ID: BadgeSpeedDemon, Name: "Speed Demon", Description: "Average best reaction under 250ms", Icon: "🏎️"},
	BadgeCenturion:  {ID: BadgeCenturion, Name: "Centurion", Description: "100+ points in a single game", Icon: "💯"},
	BadgeVeteran:    {ID: BadgeVeteran, Name: "Veteran", Description: "Played 10+ games", Icon: "🏅"},
}

// EvaluateBadges checks which badges a player has earned across their career.
func EvaluateBadges(s PlayerSummary) []Badge {
	earned := []Badge{}

	// Lightning: best reaction < 150ms
	if s.BestReaction != nil && *s.BestReaction < 150 {
		earned = append(earned, AllBadges[BadgeLightning])
	}

	// Speed Demon: avg best reaction < 250ms
	if s.AverageReaction != nil && *s.AverageReaction < 250 {
		earned = append(earned, AllBadges[BadgeSpeedDemon])
	}

	// Centurion: 100+ points in a game
	if s.BestScore >= 100 {
		earned = append(earned, AllBadges[BadgeCenturion])
	}

	// Veteran: 10+ games
	if s.GamesPlayed >= 10 {
		earned = append(earned, AllBadges[BadgeVeteran])
	}

	return earned
}

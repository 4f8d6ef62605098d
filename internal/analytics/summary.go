package analytics

import "reactionrace/internal/records"

// Summarize folds a player's archive records into career totals and badges.
// Records for other players are ignored.
func Summarize(playerName string, history []records.Record) PlayerSummary {
	s := PlayerSummary{PlayerName: playerName}

	var (
		reactionSum   float64
		reactionGames int
	)
	for _, rec := range history {
		if rec.PlayerName != playerName {
			continue
		}
		if s.GamesPlayed == 0 || rec.Score > s.BestScore {
			s.BestScore = rec.Score
		}
		s.GamesPlayed++
		s.TotalScore += rec.Score

		if rec.ReactionTime == nil {
			continue
		}
		rt := *rec.ReactionTime
		if s.BestReaction == nil || rt < *s.BestReaction {
			s.BestReaction = &rt
		}
		reactionSum += rt
		reactionGames++
	}

	if s.GamesPlayed > 0 {
		s.AverageScore = float64(s.TotalScore) / float64(s.GamesPlayed)
	}
	if reactionGames > 0 {
		avg := reactionSum / float64(reactionGames)
		s.AverageReaction = &avg
	}
	s.Badges = EvaluateBadges(s)
	return s
}

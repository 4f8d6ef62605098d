package race

const (
	// FalseStartThreshold is the fastest plausible human reaction, in milliseconds.
	FalseStartThreshold = 100.0
	FalseStartPenalty   = -5
)

// BandPoints returns the base points for a valid reaction time.
func BandPoints(ms float64) int {
	switch {
	case ms < 200:
		return 15
	case ms < 300:
		return 12
	case ms < 400:
		return 10
	case ms < 500:
		return 8
	default:
		return 5
	}
}

// RankBonus returns the extra points for a 1-based finishing position.
func RankBonus(rank int) int {
	switch rank {
	case 1:
		return 10
	case 2:
		return 7
	case 3:
		return 5
	default:
		return 3
	}
}

func isFalseStart(ms float64) bool {
	return ms < FalseStartThreshold
}

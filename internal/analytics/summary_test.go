package analytics

import (
	"testing"

	"reactionrace/internal/records"

	"github.com/google/go-cmp/cmp"
)

func TestSummarize(t *testing.T) {
	history := []records.Record{
		{PlayerName: "Alice", Score: 40, ReactionTime: ms(180)},
		{PlayerName: "Alice", Score: -5},
		{PlayerName: "Bob", Score: 120, ReactionTime: ms(90)},
		{PlayerName: "Alice", Score: 110, ReactionTime: ms(140)},
	}

	got := Summarize("Alice", history)
	want := PlayerSummary{
		PlayerName:      "Alice",
		GamesPlayed:     3,
		TotalScore:      145,
		BestScore:       110,
		AverageScore:    145.0 / 3,
		BestReaction:    ms(140),
		AverageReaction: ms(160),
		Badges: []Badge{
			AllBadges[BadgeLightning],
			AllBadges[BadgeSpeedDemon],
			AllBadges[BadgeCenturion],
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_NegativeBestScore(t *testing.T) {
	got := Summarize("Dan", []records.Record{
		{PlayerName: "Dan", Score: -10},
		{PlayerName: "Dan", Score: -5},
	})
	if got.BestScore != -5 {
		t.Errorf("BestScore = %d, want -5", got.BestScore)
	}
	if got.BestReaction != nil || got.AverageReaction != nil {
		t.Error("reaction stats should be nil without valid reactions")
	}
}

func TestSummarize_Empty(t *testing.T) {
	got := Summarize("Nobody", nil)
	if got.GamesPlayed != 0 || got.AverageScore != 0 {
		t.Errorf("Summarize(nil) = %+v, want zero totals", got)
	}
}

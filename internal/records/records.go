package records

import (
	"context"
	"time"
)

// Record is one archived final score.
type Record struct {
	ID           string    `json:"id"`
	GameID       string    `json:"game_id"`
	PlayerName   string    `json:"player_name"`
	Score        int       `json:"score"`
	ReactionTime *float64  `json:"reaction_time"`
	CreatedAt    time.Time `json:"created_at"`
}

type Stats struct {
	TotalRecords int64 `json:"total_records"`
	TotalPlayers int64 `json:"total_players"`
}

// Store is an append-only archive of results. Leaderboard orders by score
// descending then oldest first; PlayerHistory orders newest first.
type Store interface {
	Save(ctx context.Context, rec Record) error
	SaveBatch(ctx context.Context, recs []Record) error
	Leaderboard(ctx context.Context, limit int) ([]Record, error)
	PlayerHistory(ctx context.Context, playerName string, limit int) ([]Record, error)
	Stats(ctx context.Context) (Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

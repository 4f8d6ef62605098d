package records

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory. It is the default archive
// when no database is configured.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Save(ctx context.Context, rec Record) error {
	return s.SaveBatch(ctx, []Record{rec})
}

func (s *MemoryStore) SaveBatch(_ context.Context, recs []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.records = append(s.records, stamp(rec, s.now))
	}
	return nil
}

func (s *MemoryStore) Leaderboard(_ context.Context, limit int) ([]Record, error) {
	s.mu.Lock()
	sorted := slices.Clone(s.records)
	s.mu.Unlock()

	slices.SortStableFunc(sorted, func(a, b Record) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return truncate(sorted, limit), nil
}

func (s *MemoryStore) PlayerHistory(_ context.Context, playerName string, limit int) ([]Record, error) {
	s.mu.Lock()
	var history []Record
	for _, rec := range s.records {
		if rec.PlayerName == playerName {
			history = append(history, rec)
		}
	}
	s.mu.Unlock()

	// Reversed first so records sharing a timestamp list the latest save first.
	slices.Reverse(history)
	slices.SortStableFunc(history, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return truncate(history, limit), nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	players := make(map[string]struct{})
	for _, rec := range s.records {
		players[rec.PlayerName] = struct{}{}
	}
	return Stats{
		TotalRecords: int64(len(s.records)),
		TotalPlayers: int64(len(players)),
	}, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// stamp fills the id and creation time when the caller left them empty.
func stamp(rec Record, now func() time.Time) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now().UTC()
	}
	return rec
}

// Stamp is exported for SQL backends that share the same defaults.
func Stamp(rec Record) Record {
	return stamp(rec, time.Now)
}

func truncate(recs []Record, limit int) []Record {
	if recs == nil {
		recs = []Record{}
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

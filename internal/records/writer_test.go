package records

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records the size of every batch it receives.
type countingStore struct {
	*MemoryStore
	mu      sync.Mutex
	batches []int
	fail    bool
}

func (c *countingStore) SaveBatch(ctx context.Context, recs []Record) error {
	c.mu.Lock()
	c.batches = append(c.batches, len(recs))
	fail := c.fail
	c.mu.Unlock()
	if fail {
		return errors.New("boom")
	}
	return c.MemoryStore.SaveBatch(ctx, recs)
}

func (c *countingStore) total() int64 {
	stats, _ := c.Stats(context.Background())
	return stats.TotalRecords
}

func TestWriter_FlushesOnInterval(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	w := NewWriter(store, 10)
	w.flushInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	assert.True(t, w.Enqueue(Record{GameID: "game_AAAAAA", PlayerName: "Alice", Score: 10}))
	assert.Eventually(t, func() bool { return store.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestWriter_FlushesFullBatch(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	w := NewWriter(store, 100)
	w.batchSize = 3
	w.flushInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 3; i++ {
		w.Enqueue(Record{PlayerName: "Bob", Score: i})
	}
	assert.Eventually(t, func() bool { return store.total() == 3 }, time.Second, 5*time.Millisecond)
}

func TestWriter_DrainsOnShutdown(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore()}
	w := NewWriter(store, 100)
	w.flushInterval = time.Hour

	for i := 0; i < 7; i++ {
		require.True(t, w.Enqueue(Record{PlayerName: "Carol", Score: i}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.EqualValues(t, 7, store.total())
}

func TestWriter_DropsWhenFull(t *testing.T) {
	w := NewWriter(NewMemoryStore(), 1)
	assert.True(t, w.Enqueue(Record{PlayerName: "Alice"}))
	assert.False(t, w.Enqueue(Record{PlayerName: "Bob"}))
}

func TestWriter_StoreErrorDoesNotStopRun(t *testing.T) {
	store := &countingStore{MemoryStore: NewMemoryStore(), fail: true}
	w := NewWriter(store, 10)
	w.flushInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	w.Enqueue(Record{PlayerName: "Alice"})
	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.batches) == 1
	}, time.Second, 5*time.Millisecond)

	store.mu.Lock()
	store.fail = false
	store.mu.Unlock()

	w.Enqueue(Record{PlayerName: "Bob"})
	assert.Eventually(t, func() bool { return store.total() == 1 }, time.Second, 5*time.Millisecond)
}

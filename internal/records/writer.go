package records

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultBatchSize     = 50
	defaultFlushInterval = 500 * time.Millisecond
)

// Writer batches records into a Store off the request path.
type Writer struct {
	store         Store
	buffer        chan Record
	batchSize     int
	flushInterval time.Duration
}

func NewWriter(store Store, bufferSize int) *Writer {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &Writer{
		store:         store,
		buffer:        make(chan Record, bufferSize),
		batchSize:     defaultBatchSize,
		flushInterval: defaultFlushInterval,
	}
}

// Enqueue never blocks. It reports false when the buffer is full and the
// record was dropped.
func (w *Writer) Enqueue(rec Record) bool {
	select {
	case w.buffer <- rec:
		return true
	default:
		log.Warn().Str("component", "records").Str("game", rec.GameID).Msg("record buffer full, dropping record")
		return false
	}
}

// Run flushes every batchSize records or flushInterval, whichever comes
// first. Once ctx is done it drains what is already queued and returns.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, w.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		// The caller's ctx may already be cancelled during the final drain.
		fctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.store.SaveBatch(fctx, batch); err != nil {
			log.Error().Str("component", "records").Err(err).Int("records", len(batch)).Msg("SaveBatch failed")
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-w.buffer:
			batch = append(batch, rec)
			if len(batch) >= w.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case rec := <-w.buffer:
					batch = append(batch, rec)
				default:
					flush()
					return
				}
			}
		}
	}
}

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/qpaper-backend/internal/config"
	"github.com/stemsi/qpaper-backend/internal/model"
)

const (
	HistoryBatchTimeout = 2 * time.Second
	HistoryPollTimeout  = 1 * time.Second
	DefaultHistoryBatch = 50
)

// HistoryStore is satisfied by *repository.HistoryRepository.
type HistoryStore interface {
	InsertBatch(ctx context.Context, batch []*model.GenerationHistory) error
	Insert(ctx context.Context, h *model.GenerationHistory) error
}

// Queue is the slice of the Redis API the worker needs.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
}

// HistoryWorker drains the generation history queue into PostgreSQL in
// batches.
type HistoryWorker struct {
	store     HistoryStore
	queue     Queue
	batchSize int
	log       zerolog.Logger
}

func NewHistoryWorker(store HistoryStore, queue Queue, batchSize int, log zerolog.Logger) *HistoryWorker {
	if batchSize <= 0 {
		batchSize = DefaultHistoryBatch
	}
	return &HistoryWorker{
		store:     store,
		queue:     queue,
		batchSize: batchSize,
		log:       log.With().Str("component", "history_worker").Logger(),
	}
}

// Start blocks until ctx is cancelled, then flushes what it holds.
func (w *HistoryWorker) Start(ctx context.Context) {
	w.log.Info().Int("batch_size", w.batchSize).Msg("HistoryWorker started")

	batch := make([]*model.GenerationHistory, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= HistoryBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.queue.BLPop(ctx, HistoryPollTimeout, config.WorkerKey.PersistHistoryQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if h, ok := w.decode(item); ok {
				batch = append(batch, h)
			}
		}
	}
}

// decode parses a BLPOP reply of [key, payload].
func (w *HistoryWorker) decode(item []string) (*model.GenerationHistory, bool) {
	if len(item) < 2 {
		return nil, false
	}
	var h model.GenerationHistory
	if err := json.Unmarshal([]byte(item[1]), &h); err != nil {
		w.log.Error().Err(err).Msg("Invalid JSON payload")
		return nil, false
	}
	return &h, true
}

func (w *HistoryWorker) flushSafe(ctx context.Context, batch []*model.GenerationHistory) {
	if len(batch) == 0 {
		return
	}

	if err := w.store.InsertBatch(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk history insert failed, using fallback")

		for _, h := range batch {
			if err := w.store.Insert(ctx, h); err != nil {
				w.log.Error().Err(err).Str("history_id", h.ID.String()).Msg("single insert failed, requeueing")
				raw, _ := json.Marshal(h)
				w.queue.RPush(ctx, config.WorkerKey.PersistHistoryQueue, raw)
			}
		}
		return
	}

	w.log.Debug().Int("size", len(batch)).Msg("History batch persisted")
}

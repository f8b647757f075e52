package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/panchali/pkg/log"
	"github.com/cbodonnell/panchali/pkg/queue"
	"github.com/cbodonnell/panchali/pkg/repositories"
	"github.com/cbodonnell/panchali/pkg/state"
)

const DefaultCheckpointInterval = 10 * time.Second

type CheckpointWorker struct {
	repository      repositories.Repository
	stateManager    state.StateManager
	checkpointQueue queue.Queue
	interval        time.Duration
	now             func() time.Time
}

type NewCheckpointWorkerOptions struct {
	Repository      repositories.Repository
	StateManager    state.StateManager
	CheckpointQueue queue.Queue
	Interval        time.Duration
	Now             func() time.Time
}

// NewCheckpointWorker creates a new CheckpointWorker.
// The worker drains room IDs queued by the handlers and periodically
// writes each room's turn pointer and action log to the repository.
func NewCheckpointWorker(opts NewCheckpointWorkerOptions) *CheckpointWorker {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &CheckpointWorker{
		repository:      opts.Repository,
		stateManager:    opts.StateManager,
		checkpointQueue: opts.CheckpointQueue,
		interval:        interval,
		now:             now,
	}
}

// Start runs until ctx is done, then flushes whatever is still queued.
func (w *CheckpointWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.Flush(flushCtx)
			cancel()
			return
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// Flush checkpoints every room queued since the last flush, once each.
func (w *CheckpointWorker) Flush(ctx context.Context) {
	items, err := w.checkpointQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read checkpoint queue: %v", err)
		return
	}

	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		roomID, ok := item.(string)
		if !ok {
			log.Error("Unhandled checkpoint item type: %T", item)
			continue
		}
		if _, ok := seen[roomID]; ok {
			continue
		}
		seen[roomID] = struct{}{}
		w.checkpoint(ctx, roomID)
	}
}

func (w *CheckpointWorker) checkpoint(ctx context.Context, roomID string) {
	unlock := w.stateManager.Lock(roomID)
	gs, ok := w.stateManager.Get(ctx, roomID)
	if !ok {
		unlock()
		log.Debug("No live game to checkpoint for room %s", roomID)
		return
	}
	checkpoint, err := state.NewCheckpoint(gs, w.now())
	unlock()
	if err != nil {
		log.Error("Failed to build checkpoint for room %s: %v", roomID, err)
		return
	}

	if err := w.repository.SaveCheckpoint(ctx, checkpoint); err != nil {
		log.Error("Failed to save checkpoint for room %s: %v", roomID, err)
		return
	}
	log.Trace("Checkpointed room %s at turn %d", roomID, checkpoint.CurrentTurnIndex)
}

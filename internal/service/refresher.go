package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"profile-registry/internal/domain"
	"profile-registry/internal/websocket"
)

type Reconstructor interface {
	Reconstruct(ctx context.Context) (*domain.History, error)
}

// RefreshResult is one completed reconstruction as seen by the refresher.
type RefreshResult struct {
	Seq         uint64
	History     *domain.History
	Err         error
	CompletedAt time.Time
}

// Refresher re-runs reconstruction on a timer and on demand. Runs may overlap;
// whichever completes last is kept.
type Refresher struct {
	source   Reconstructor
	notifier Notifier
	interval time.Duration
	logger   *slog.Logger

	seq  atomic.Uint64
	mu   sync.RWMutex
	last *RefreshResult
}

func NewRefresher(source Reconstructor, notifier Notifier, interval time.Duration, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		source:   source,
		notifier: notifier,
		interval: interval,
		logger:   logger.With("component", "refresher"),
	}
}

// Run refreshes once immediately and then every interval until ctx is done.
// A non-positive interval disables the timer.
func (r *Refresher) Run(ctx context.Context) {
	r.Trigger(ctx)

	if r.interval <= 0 {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Trigger(ctx)
		}
	}
}

// Trigger runs one reconstruction and records it unless ctx was cancelled.
func (r *Refresher) Trigger(ctx context.Context) (*domain.History, error) {
	seq := r.seq.Add(1)
	h, err := r.source.Reconstruct(ctx)

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.logger.Debug("refresh abandoned", "seq", seq, "error", err)
		return h, err
	}

	r.store(&RefreshResult{
		Seq:         seq,
		History:     h,
		Err:         err,
		CompletedAt: time.Now().UTC(),
	})
	return h, err
}

func (r *Refresher) Last() (*RefreshResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.last != nil
}

func (r *Refresher) store(result *RefreshResult) {
	r.mu.Lock()
	prev := r.last
	r.last = result
	r.mu.Unlock()

	if prev != nil && prev.Seq > result.Seq {
		r.logger.Debug("older refresh completed last", "seq", result.Seq, "previous_seq", prev.Seq)
	}

	if prev != nil && !historyChanged(prev.History, result.History) {
		return
	}
	r.publish(result.History)
}

func (r *Refresher) publish(h *domain.History) {
	if r.notifier == nil || h == nil {
		return
	}

	payload := &websocket.HistoryRefreshedPayload{
		Status:   string(h.Status),
		Versions: len(h.Versions),
		BuiltAt:  h.BuiltAt,
	}
	for _, v := range h.Versions {
		if v.Version > payload.HighestVersion {
			payload.HighestVersion = v.Version
		}
	}
	topics := []string{websocket.TopicProfiles}
	if h.Metadata != nil && h.Metadata.FileID != "" {
		payload.FileID = h.Metadata.FileID
		topics = append(topics, websocket.ProfileTopic(h.Metadata.FileID))
	}

	msg, err := websocket.NewMessage(websocket.TypeHistoryRefreshed, payload)
	if err != nil {
		r.logger.Error("failed to build refresh event", "error", err)
		return
	}

	for _, topic := range topics {
		if err := r.notifier.Publish(topic, msg); err != nil {
			r.logger.Warn("failed to publish refresh event", "topic", topic, "error", err)
		}
	}
}

func historyChanged(a, b *domain.History) bool {
	if a == nil || b == nil {
		return a != b
	}
	if a.Status != b.Status || len(a.Versions) != len(b.Versions) {
		return true
	}
	if fileID(a) != fileID(b) {
		return true
	}
	// the timeline ends at version 1, the newest edit
	if n := len(a.Versions); n > 0 && !a.Versions[n-1].Timestamp.Equal(b.Versions[n-1].Timestamp) {
		return true
	}
	return false
}

func fileID(h *domain.History) string {
	if h.Metadata == nil {
		return ""
	}
	return h.Metadata.FileID
}

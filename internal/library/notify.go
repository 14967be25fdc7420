package library

import (
	"context"
	"sync"
)

const (
	topicItems   = "items"
	topicHistory = "history"
	topicAlbums  = "albums"
)

func unitsTopic(itemID string) string  { return "units:" + itemID }
func pagesTopic(unitID string) string  { return "pages:" + unitID }
func albumTopic(albumID string) string { return "album:" + albumID }

// changeHub tracks a version counter per topic and wakes waiters on commit.
type changeHub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	versions map[string]uint64
	closed   bool
}

func newChangeHub() *changeHub {
	h := &changeHub{versions: make(map[string]uint64)}
	h.cond = sync.NewCond(&h.mu)
	return h
}

func (h *changeHub) publish(topics ...string) {
	if len(topics) == 0 {
		return
	}
	h.mu.Lock()
	for _, topic := range topics {
		h.versions[topic]++
	}
	h.cond.Broadcast()
	h.mu.Unlock()
}

func (h *changeHub) version(topic string) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.versions[topic]
}

func (h *changeHub) close() {
	h.mu.Lock()
	h.closed = true
	h.cond.Broadcast()
	h.mu.Unlock()
}

// wait blocks until topic moves past since, ctx ends, or the hub closes.
// ok is false in the latter two cases.
func (h *changeHub) wait(ctx context.Context, topic string, since uint64) (uint64, bool) {
	stop := context.AfterFunc(ctx, func() {
		h.mu.Lock()
		h.cond.Broadcast()
		h.mu.Unlock()
	})
	defer stop()

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		if h.closed || ctx.Err() != nil {
			return since, false
		}
		if v := h.versions[topic]; v > since {
			return v, true
		}
		h.cond.Wait()
	}
}

// watch emits load's initial result, then a fresh result after every commit
// touching topic. Intermediate snapshots are dropped when the consumer lags;
// the channel always ends up holding the latest one. The channel closes when
// ctx ends or the store closes.
func watch[T any](ctx context.Context, s *Store, topic string, load func(context.Context) (T, error)) (<-chan T, error) {
	seen := s.hub.version(topic)
	initial, err := load(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan T, 1)
	out <- initial

	go func() {
		defer close(out)
		for {
			next, ok := s.hub.wait(ctx, topic, seen)
			if !ok {
				return
			}
			seen = next
			snapshot, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Warn("watch reload failed", "topic", topic, "error", err)
				continue
			}
			select {
			case <-out:
			default:
			}
			out <- snapshot
		}
	}()
	return out, nil
}

// WatchItems streams the item list (as ListItems) on every change.
func (s *Store) WatchItems(ctx context.Context) (<-chan []*Item, error) {
	return watch(ctx, s, topicItems, s.ListItems)
}

// WatchUnits streams itemID's unit list on every change.
func (s *Store) WatchUnits(ctx context.Context, itemID string) (<-chan []*Unit, error) {
	return watch(ctx, s, unitsTopic(itemID), func(ctx context.Context) ([]*Unit, error) {
		return s.ListUnits(ctx, itemID)
	})
}

// WatchPages streams unitID's page list on every change.
func (s *Store) WatchPages(ctx context.Context, unitID string) (<-chan []*Page, error) {
	return watch(ctx, s, pagesTopic(unitID), func(ctx context.Context) ([]*Page, error) {
		return s.ListPages(ctx, unitID)
	})
}

// WatchHistory streams the full history, newest first, on every insert.
func (s *Store) WatchHistory(ctx context.Context) (<-chan []*HistoryRecord, error) {
	return watch(ctx, s, topicHistory, func(ctx context.Context) ([]*HistoryRecord, error) {
		return s.ListHistory(ctx, 0)
	})
}

// WatchAlbums streams the album list on every change.
func (s *Store) WatchAlbums(ctx context.Context) (<-chan []*Album, error) {
	return watch(ctx, s, topicAlbums, s.ListAlbums)
}

// WatchAlbumUnits streams one album's entries on every change.
func (s *Store) WatchAlbumUnits(ctx context.Context, albumID string) (<-chan []*AlbumEntry, error) {
	return watch(ctx, s, albumTopic(albumID), func(ctx context.Context) ([]*AlbumEntry, error) {
		return s.ListAlbumUnits(ctx, albumID)
	})
}

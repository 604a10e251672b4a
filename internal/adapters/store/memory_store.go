package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/animeempire/support-bot/internal/core"
)

// MemoryStore keeps everything in process memory. Nothing survives a
// restart, so it is only suitable for tests and throwaway runs.
type MemoryStore struct {
	mu          sync.RWMutex
	ledger      map[string]*core.LedgerEntry
	escalations []*core.EscalationItem
	nextID      int64
	summarySent []time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ledger: make(map[string]*core.LedgerEntry),
		nextID: 1,
	}
}

func (s *MemoryStore) Seen(ctx context.Context, messageID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ledger[messageID]
	return ok, nil
}

func (s *MemoryStore) Record(ctx context.Context, entry *core.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ledger[entry.MessageID]; ok {
		return fmt.Errorf("ledger entry already exists for %s", entry.MessageID)
	}
	copied := *entry
	s.ledger[entry.MessageID] = &copied
	return nil
}

func (s *MemoryStore) Enqueue(ctx context.Context, item *core.EscalationItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *item
	copied.ID = s.nextID
	copied.Status = core.StatusPending
	s.nextID++
	s.escalations = append(s.escalations, &copied)
	return copied.ID, nil
}

func (s *MemoryStore) ListPending(ctx context.Context) ([]core.EscalationItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPendingLocked()
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*core.EscalationItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.escalations {
		if item.ID == id {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) Resolve(ctx context.Context, id int64, resolvedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.escalations {
		if item.ID == id && item.Status == core.StatusPending {
			item.Status = core.StatusResolved
			item.ResolvedAt = time.Now()
			item.ResolvedBy = resolvedBy
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) Stats(ctx context.Context, since time.Time) (*core.ActivityStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &core.ActivityStats{}
	for _, entry := range s.ledger {
		if entry.ProcessedAt.Before(since) {
			continue
		}
		stats.TotalProcessed++
		if entry.ReplySent {
			stats.RepliesSent++
		}
		if entry.Intent == core.IntentSpam {
			stats.SpamFiltered++
		}
	}
	for _, item := range s.escalations {
		if !item.CreatedAt.Before(since) {
			stats.Flagged++
		}
		switch item.Status {
		case core.StatusPending:
			stats.PendingReviews++
		case core.StatusResolved:
			stats.ResolvedTotal++
		}
	}

	pending, _ := s.listPendingLocked()
	if len(pending) > 10 {
		pending = pending[:10]
	}
	stats.PendingItems = pending
	return stats, nil
}

// listPendingLocked is ListPending without locking, for callers that
// already hold the read lock.
func (s *MemoryStore) listPendingLocked() ([]core.EscalationItem, error) {
	var pending []core.EscalationItem
	for _, item := range s.escalations {
		if item.Status == core.StatusPending {
			pending = append(pending, *item)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		ri, rj := priorityOrder(pending[i].Priority), priorityOrder(pending[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (s *MemoryStore) LastSummarySent(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.summarySent) == 0 {
		return time.Time{}, nil
	}
	return s.summarySent[len(s.summarySent)-1], nil
}

func (s *MemoryStore) RecordSummarySent(ctx context.Context, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summarySent = append(s.summarySent, sentAt)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func priorityOrder(p core.Priority) int {
	switch p {
	case core.PriorityHigh:
		return 0
	case core.PriorityMedium:
		return 1
	default:
		return 2
	}
}

var (
	_ core.Ledger          = (*MemoryStore)(nil)
	_ core.EscalationQueue = (*MemoryStore)(nil)
	_ core.Reporter        = (*MemoryStore)(nil)
	_ core.SummaryLog      = (*MemoryStore)(nil)
)

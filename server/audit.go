package server

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InvocationRecord is one entry in the invocation audit log.
type InvocationRecord struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	ToolID     string    `json:"toolId,omitempty"`
	Status     string    `json:"status"`
	ErrorKind  string    `json:"errorKind,omitempty"`
	DurationMS int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AuditStore persists the invocation audit log.
type AuditStore interface {
	Insert(ctx context.Context, rec InvocationRecord) error
	// List returns the most recent records first, at most limit entries.
	List(ctx context.Context, limit int) ([]InvocationRecord, error)
	Close() error
}

// MemoryAuditStore keeps the audit log in memory. It backs deployments that
// run without a SQLite path configured, and tests.
type MemoryAuditStore struct {
	mu      sync.RWMutex
	records []InvocationRecord
	// MaxRecords bounds retention; zero means the default.
	maxRecords int
}

const defaultMemoryAuditRetention = 1000

// NewMemoryAuditStore creates an in-memory audit store retaining at most
// maxRecords entries (0 uses the default).
func NewMemoryAuditStore(maxRecords int) *MemoryAuditStore {
	if maxRecords <= 0 {
		maxRecords = defaultMemoryAuditRetention
	}
	return &MemoryAuditStore{maxRecords: maxRecords}
}

func (s *MemoryAuditStore) Insert(ctx context.Context, rec InvocationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if len(s.records) > s.maxRecords {
		s.records = s.records[len(s.records)-s.maxRecords:]
	}
	return nil
}

func (s *MemoryAuditStore) List(ctx context.Context, limit int) ([]InvocationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]InvocationRecord, len(s.records))
	copy(out, s.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryAuditStore) Close() error { return nil }

var _ AuditStore = (*MemoryAuditStore)(nil)

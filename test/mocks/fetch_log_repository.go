package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/fetchlog"
)

// MemoryFetchLogRepository is an in-memory ports.FetchLogRepository. Only the
// company and outcome filters are applied.
type MemoryFetchLogRepository struct {
	mu   sync.Mutex
	logs []*fetchlog.FetchLog
}

func (r *MemoryFetchLogRepository) Create(ctx context.Context, log *fetchlog.FetchLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	cp := *log
	r.logs = append(r.logs, &cp)
	return nil
}

func (r *MemoryFetchLogRepository) List(ctx context.Context, filter *fetchlog.FetchLogFilter) ([]*fetchlog.FetchLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*fetchlog.FetchLog, 0)
	// newest first
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.matches(r.logs[i], filter) {
			cp := *r.logs[i]
			out = append(out, &cp)
		}
	}
	if filter != nil && filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return out[:0], nil
		}
		out = out[filter.Offset:]
	}
	if filter != nil && filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryFetchLogRepository) Count(ctx context.Context, filter *fetchlog.FetchLogFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.logs {
		if r.matches(l, filter) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryFetchLogRepository) matches(l *fetchlog.FetchLog, filter *fetchlog.FetchLogFilter) bool {
	if filter == nil {
		return true
	}
	if filter.CompanyID != nil && l.CompanyID != *filter.CompanyID {
		return false
	}
	if filter.Outcome != nil && l.Outcome != *filter.Outcome {
		return false
	}
	return true
}

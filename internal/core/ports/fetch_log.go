package ports

import (
	"context"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/fetchlog"
)

// FetchLogRepository defines the interface for fetch log data operations
type FetchLogRepository interface {
	Create(ctx context.Context, log *fetchlog.FetchLog) error
	List(ctx context.Context, filter *fetchlog.FetchLogFilter) ([]*fetchlog.FetchLog, error)
	Count(ctx context.Context, filter *fetchlog.FetchLogFilter) (int, error)
}

// FetchLogService records how each stats request was served
type FetchLogService interface {
	LogFetch(ctx context.Context, req *fetchlog.CreateFetchLogRequest) error
	GetFetchLogs(ctx context.Context, filter *fetchlog.FetchLogFilter) ([]*fetchlog.FetchLog, int, error)
}

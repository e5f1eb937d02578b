package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/fetchlog"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
)

const (
	defaultFetchLogLimit = 50
	maxFetchLogLimit     = 500
)

type FetchLogService struct {
	repo   ports.FetchLogRepository
	logger *logrus.Logger
	now    func() time.Time
}

func NewFetchLogService(repo ports.FetchLogRepository, logger *logrus.Logger) *FetchLogService {
	return &FetchLogService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// LogFetch persists how a single stats request was served.
func (s *FetchLogService) LogFetch(ctx context.Context, req *fetchlog.CreateFetchLogRequest) error {
	entry := &fetchlog.FetchLog{
		CompanyID:    req.CompanyID,
		Platform:     req.Platform,
		ProfileID:    req.ProfileID,
		Outcome:      req.Outcome,
		ErrorMessage: req.ErrorMessage,
		DurationMs:   req.Duration.Milliseconds(),
		Timestamp:    s.now(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"company_id": req.CompanyID, "platform": req.Platform, "outcome": req.Outcome}).WithError(err).Error("failed to persist fetch log")
		}
		return err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"company_id": req.CompanyID, "platform": req.Platform, "profile_id": req.ProfileID, "outcome": req.Outcome}).Debug("fetch log persisted")
	}
	return nil
}

// GetFetchLogs returns one page of logs plus the total matching count.
// The page size defaults to 50 and is capped at 500.
func (s *FetchLogService) GetFetchLogs(ctx context.Context, filter *fetchlog.FetchLogFilter) ([]*fetchlog.FetchLog, int, error) {
	if filter == nil {
		filter = &fetchlog.FetchLogFilter{}
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultFetchLogLimit
	}
	if filter.Limit > maxFetchLogLimit {
		filter.Limit = maxFetchLogLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

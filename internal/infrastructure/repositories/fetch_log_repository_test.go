package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/fetchlog"
)

func TestFetchLogRepository_BuildListQuery(t *testing.T) {
	r := &fetchLogRepository{}
	company := uuid.New()
	platform := "FACEBOOK"
	outcome := fetchlog.OutcomeStaleCache
	start := time.Now().Add(-time.Hour)

	query, args := r.buildListQuery(&fetchlog.FetchLogFilter{
		CompanyID: &company,
		Platform:  &platform,
		Outcome:   &outcome,
		StartTime: &start,
		Limit:     20,
		Offset:    40,
	}, false)
	require.Equal(t, "SELECT id, company_id, platform, profile_id, outcome, error_message, duration_ms, timestamp FROM fetch_logs WHERE company_id = $1 AND platform = $2 AND outcome = $3 AND timestamp >= $4 ORDER BY timestamp DESC LIMIT $5 OFFSET $6", query)
	require.Equal(t, []interface{}{company, "FACEBOOK", "stale_cache", start, 20, 40}, args)

	query, args = r.buildListQuery(&fetchlog.FetchLogFilter{CompanyID: &company, Limit: 20}, true)
	require.Equal(t, "SELECT COUNT(*) FROM fetch_logs WHERE company_id = $1", query)
	require.Equal(t, []interface{}{company}, args)

	query, args = r.buildListQuery(nil, false)
	require.Equal(t, "SELECT id, company_id, platform, profile_id, outcome, error_message, duration_ms, timestamp FROM fetch_logs ORDER BY timestamp DESC", query)
	require.Empty(t, args)
}

func TestFetchLogRepository_CreateAndList(t *testing.T) {
	database, mock := newMockDB(t)
	repo := NewFetchLogRepository(database, nil)
	ctx := context.Background()
	company := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fetch_logs")).
		WithArgs(sqlmock.AnyArg(), company, "TWITTER", "h", "failed", "timeout", int64(1500), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	log := &fetchlog.FetchLog{CompanyID: company, Platform: "TWITTER", ProfileID: "h", Outcome: fetchlog.OutcomeFailed, ErrorMessage: "timeout", DurationMs: 1500}
	require.NoError(t, repo.Create(ctx, log))
	require.NotEqual(t, uuid.Nil, log.ID)
	require.False(t, log.Timestamp.IsZero())

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM fetch_logs WHERE company_id = $1 ORDER BY timestamp DESC")).
		WithArgs(company).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "platform", "profile_id", "outcome", "error_message", "duration_ms", "timestamp"}).
			AddRow(uuid.NewString(), company.String(), "TWITTER", "h", "failed", "timeout", int64(1500), now).
			AddRow(uuid.NewString(), company.String(), "TWITTER", "h", "upstream", nil, int64(80), now))

	logs, err := repo.List(ctx, &fetchlog.FetchLogFilter{CompanyID: &company})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.Equal(t, fetchlog.OutcomeFailed, logs[0].Outcome)
	require.Equal(t, "timeout", logs[0].ErrorMessage)
	require.Empty(t, logs[1].ErrorMessage)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM fetch_logs")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

package repositories

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/social-analytics-cache/go/internal/core/domain/fetchlog"
	"github.com/avatarctic/social-analytics-cache/go/internal/core/ports"
	"github.com/avatarctic/social-analytics-cache/go/internal/infrastructure/db"
)

type fetchLogRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewFetchLogRepository creates a new instance of FetchLogRepository
func NewFetchLogRepository(database *db.Database, logger *logrus.Logger) ports.FetchLogRepository {
	return &fetchLogRepository{
		db:     database,
		logger: logger,
	}
}

// Create inserts a new fetch log row
func (r *fetchLogRepository) Create(ctx context.Context, log *fetchlog.FetchLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	var errMsg sql.NullString
	if log.ErrorMessage != "" {
		errMsg = sql.NullString{String: log.ErrorMessage, Valid: true}
	}

	query := `
		INSERT INTO fetch_logs (
			id, company_id, platform, profile_id, outcome, error_message, duration_ms, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)`

	_, err := r.db.DB.ExecContext(ctx, query,
		log.ID,
		log.CompanyID,
		log.Platform,
		log.ProfileID,
		string(log.Outcome),
		errMsg,
		log.DurationMs,
		log.Timestamp,
	)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"company_id": log.CompanyID, "platform": log.Platform, "outcome": log.Outcome}).WithError(err).Error("db: failed to insert fetch log")
		}
		return err
	}
	return nil
}

// List retrieves fetch logs matching the filter, newest first
func (r *fetchLogRepository) List(ctx context.Context, filter *fetchlog.FetchLogFilter) ([]*fetchlog.FetchLog, error) {
	query, args := r.buildListQuery(filter, false)
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"query": query, "args": args}).Debug("db: executing fetch log list query")
	}
	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"query": query}).WithError(err).Error("db: failed to execute fetch log list query")
		}
		return nil, err
	}
	defer rows.Close()

	logs := make([]*fetchlog.FetchLog, 0)
	for rows.Next() {
		log := &fetchlog.FetchLog{}
		var outcome string
		var errMsg sql.NullString

		if err := rows.Scan(
			&log.ID,
			&log.CompanyID,
			&log.Platform,
			&log.ProfileID,
			&outcome,
			&errMsg,
			&log.DurationMs,
			&log.Timestamp,
		); err != nil {
			return nil, err
		}
		log.Outcome = fetchlog.Outcome(outcome)
		if errMsg.Valid {
			log.ErrorMessage = errMsg.String
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).Error("db: error iterating fetch log rows")
		}
		return nil, err
	}
	return logs, nil
}

// Count returns the number of fetch logs matching the filter, ignoring paging
func (r *fetchLogRepository) Count(ctx context.Context, filter *fetchlog.FetchLogFilter) (int, error) {
	query, args := r.buildListQuery(filter, true)

	var count int
	if err := r.db.DB.GetContext(ctx, &count, query, args...); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"query": query}).WithError(err).Error("db: failed to execute fetch log count query")
		}
		return 0, err
	}
	return count, nil
}

func (r *fetchLogRepository) buildListQuery(filter *fetchlog.FetchLogFilter, isCount bool) (string, []interface{}) {
	var selectClause string
	if isCount {
		selectClause = "SELECT COUNT(*)"
	} else {
		selectClause = "SELECT id, company_id, platform, profile_id, outcome, error_message, duration_ms, timestamp"
	}

	query := selectClause + " FROM fetch_logs"
	var conditions []string
	var args []interface{}
	argIndex := 1

	add := func(cond string, v interface{}) {
		conditions = append(conditions, cond+" $"+strconv.Itoa(argIndex))
		args = append(args, v)
		argIndex++
	}

	if filter != nil {
		if filter.CompanyID != nil {
			add("company_id =", *filter.CompanyID)
		}
		if filter.Platform != nil {
			add("platform =", *filter.Platform)
		}
		if filter.Outcome != nil {
			add("outcome =", string(*filter.Outcome))
		}
		if filter.StartTime != nil {
			add("timestamp >=", *filter.StartTime)
		}
		if filter.EndTime != nil {
			add("timestamp <=", *filter.EndTime)
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if !isCount {
		query += " ORDER BY timestamp DESC"
		if filter != nil {
			if filter.Limit > 0 {
				query += " LIMIT $" + strconv.Itoa(argIndex)
				args = append(args, filter.Limit)
				argIndex++
			}
			if filter.Offset > 0 {
				query += " OFFSET $" + strconv.Itoa(argIndex)
				args = append(args, filter.Offset)
			}
		}
	}

	return query, args
}

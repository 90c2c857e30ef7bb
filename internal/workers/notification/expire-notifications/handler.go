// internal/workers/notification/expire-notifications/handler.go
package expirenotifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	commonerrors "wallet-workers/internal/common/errors"
	"wallet-workers/internal/common/logger"
	"wallet-workers/internal/common/metrics"
)

const TaskType = "expire-notifications"

// Handler sweeps active notifications whose expiry has passed and persists
// the expired status. Reads already treat such rows as expired, so lag here
// never changes what users see; the sweep keeps storage, search and metrics
// consistent with the read-time view.
type Handler struct {
	config      *Config
	db          *sql.DB
	redisClient *redis.Client
	logger      logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		db:          db,
		redisClient: redisClient,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing expire-notifications job", map[string]interface{}{
		"jobKey": job.Key,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, commonerrors.NewNotificationValidationError(fmt.Sprintf("failed to parse job variables: %v", err)))
		return
	}

	start := time.Now()
	output, err := h.execute(ctx, &input)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

// Execute exposes the business logic for tests and local tooling.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	batchSize := input.BatchSize
	if batchSize <= 0 {
		batchSize = h.config.BatchSize
	}

	now := time.Now().UTC()

	// CAS on status keeps the sweep safe against concurrent user
	// transitions: a row dismissed mid-sweep stays dismissed.
	query := `
		UPDATE notifications SET status = 'expired', updated_at = $1
		WHERE id IN (
			SELECT id FROM notifications
			WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at < $1
			ORDER BY expires_at
			LIMIT $2
		) AND status = 'active'
		RETURNING user_id`

	rows, err := h.db.QueryContext(ctx, query, now, batchSize)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(TaskType, err)
	}
	defer rows.Close()

	users := make(map[string]struct{})
	count := 0
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError(TaskType, err)
		}
		users[userID] = struct{}{}
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(TaskType, err)
	}

	affected := make([]string, 0, len(users))
	for userID := range users {
		affected = append(affected, userID)
		h.invalidateCache(ctx, userID)
	}

	metrics.NotificationsExpired.Add(float64(count))
	h.logger.Info("Expiry sweep complete", map[string]interface{}{
		"expiredCount":  count,
		"affectedUsers": len(affected),
	})

	return &Output{
		ExpiredCount:  count,
		AffectedUsers: affected,
		SweptAt:       now.Format(time.RFC3339),
	}, nil
}

func (h *Handler) invalidateCache(ctx context.Context, userID string) {
	if h.redisClient == nil {
		return
	}
	if err := h.redisClient.Del(ctx, h.config.CacheKeyPrefix+userID).Err(); err != nil {
		h.logger.WithError(err).Warn("Failed to invalidate notification cache", map[string]interface{}{
			"userId": userID,
		})
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build complete job command", map[string]interface{}{
			"jobKey": job.Key,
		})
		return
	}
	if _, err := request.Send(context.Background()); err != nil {
		h.logger.WithError(err).Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
		})
		return
	}
	h.logger.Info("Job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	handler := commonerrors.NewErrorHandler(h.logger)
	handler.HandleJobError(context.Background(), client, job, err)
}

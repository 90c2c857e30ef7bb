// internal/workers/data-access/query-notifications/handler.go
package querynotifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/redis/go-redis/v9"

	commonerrors "wallet-workers/internal/common/errors"
	"wallet-workers/internal/common/logger"
	"wallet-workers/internal/common/metrics"
	"wallet-workers/internal/models"
	"wallet-workers/internal/notification"
	"wallet-workers/internal/workers/data-access/query-notifications/queries"
)

const TaskType = "query-notifications"

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

	h.logger.Info("Processing query-notifications job", map[string]interface{}{
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
	queryType := models.QueryType(input.QueryType)
	if _, exists := queries.Registry[queryType]; !exists {
		return nil, commonerrors.NewInvalidQueryTypeError(input.QueryType)
	}

	if cached, ok := h.readCache(ctx, queryType, input); ok {
		return cached, nil
	}

	params := make(map[string]interface{})
	if input.UserID != "" {
		params["userId"] = input.UserID
	}
	if input.ViewerID != "" {
		params["viewerId"] = input.ViewerID
	}
	if input.ParentID != "" {
		params["parentId"] = input.ParentID
	}
	if input.Limit > 0 {
		params["limit"] = input.Limit
	}

	data, rowCount, execTime, err := queries.Execute(ctx, h.db, queryType, params)
	if err != nil {
		if errors.Is(err, queries.ErrMissingParam) {
			return nil, commonerrors.NewInvalidArgumentError(err.Error())
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, commonerrors.NewQueryTimeoutError(input.QueryType)
		}
		return nil, commonerrors.NewQueryExecutionFailedError(input.QueryType, err)
	}

	output := &Output{
		Data:               data,
		RowCount:           rowCount,
		QueryExecutionTime: execTime,
	}
	h.writeCache(ctx, queryType, input, data)
	return output, nil
}

// Only the owner's own active feed is cached. Viewer-specific variants are
// cheap to recompute and would dodge the Del-by-user invalidation the write
// workers perform.
func (h *Handler) cacheKey(queryType models.QueryType, input *Input) (string, bool) {
	if h.redisClient == nil || queryType != models.QueryTypeActiveForUser {
		return "", false
	}
	if input.ViewerID != "" && input.ViewerID != input.UserID {
		return "", false
	}
	return h.config.CacheKeyPrefix + input.UserID, true
}

func (h *Handler) readCache(ctx context.Context, queryType models.QueryType, input *Input) (*Output, bool) {
	key, ok := h.cacheKey(queryType, input)
	if !ok {
		return nil, false
	}

	raw, err := h.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).Warn("Cache read failed", map[string]interface{}{"key": key})
		return nil, false
	}

	var list []*models.Notification
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		h.logger.WithError(err).Warn("Cache entry corrupt, ignoring", map[string]interface{}{"key": key})
		return nil, false
	}

	// an entry may have expired since it was cached
	now := time.Now().UTC()
	fresh := make([]*models.Notification, 0, len(list))
	for _, n := range list {
		if notification.EffectiveStatus(n.Status, n.Metadata.ExpiresAt, now) == models.StatusActive {
			fresh = append(fresh, n)
		}
	}

	return &Output{
		Data:     fresh,
		RowCount: len(fresh),
		CacheHit: true,
	}, true
}

func (h *Handler) writeCache(ctx context.Context, queryType models.QueryType, input *Input, data interface{}) {
	key, ok := h.cacheKey(queryType, input)
	if !ok {
		return
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	if err := h.redisClient.Set(ctx, key, payload, h.config.CacheTTL).Err(); err != nil {
		h.logger.WithError(err).Warn("Cache write failed", map[string]interface{}{"key": key})
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

// internal/workers/notification/transition-status/handler.go
package transitionstatus

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
	"wallet-workers/internal/models"
	"wallet-workers/internal/notification"
)

const TaskType = "transition-status"

// actionTargets maps the workflow-facing action verbs onto terminal
// statuses. There is deliberately no action that targets "active":
// reactivation is not a supported transition.
var actionTargets = map[string]models.NotificationStatus{
	"dismiss": models.StatusDismissed,
	"action":  models.StatusActioned,
	"expire":  models.StatusExpired,
}

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

	h.logger.Info("Processing transition-status job", map[string]interface{}{
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
	if input.NotificationID == "" {
		return nil, commonerrors.NewInvalidArgumentError("notificationId is required")
	}
	target, ok := actionTargets[input.Action]
	if !ok {
		return nil, commonerrors.NewInvalidArgumentError(fmt.Sprintf("unknown action %q", input.Action))
	}

	current, userID, meta, err := h.loadNotification(ctx, input.NotificationID)
	if err != nil {
		return nil, err
	}

	if target == models.StatusDismissed && !meta.Dismissible {
		metrics.NotificationTransitionRejects.WithLabelValues("not_dismissible").Inc()
		return nil, commonerrors.NewInvalidArgumentError(fmt.Sprintf("notification %s is not dismissible", input.NotificationID))
	}

	if err := notification.ValidateTransition(current, target); err != nil {
		metrics.NotificationTransitionRejects.WithLabelValues("invalid_transition").Inc()
		return nil, commonerrors.NewInvalidTransitionError(string(current), string(target))
	}

	now := time.Now().UTC()
	committed, err := h.commitTransition(ctx, input.NotificationID, target, now)
	if err != nil {
		return nil, err
	}
	if !committed {
		// a concurrent transition won the race between our read and write
		metrics.NotificationTransitionRejects.WithLabelValues("conflict").Inc()
		return nil, commonerrors.NewNotificationConflictError(input.NotificationID)
	}

	metrics.NotificationTransitions.WithLabelValues(string(target)).Inc()
	h.invalidateCache(ctx, userID)

	h.logger.Info("Notification transitioned", map[string]interface{}{
		"notificationId": input.NotificationID,
		"from":           current,
		"to":             target,
	})

	return &Output{
		NotificationID: input.NotificationID,
		PreviousStatus: current,
		NewStatus:      target,
		UpdatedAt:      now.Format(time.RFC3339),
	}, nil
}

func (h *Handler) loadNotification(ctx context.Context, id string) (models.NotificationStatus, string, *models.NotificationMetadata, error) {
	query := `SELECT status, user_id, metadata FROM notifications WHERE id = $1`

	var status models.NotificationStatus
	var userID string
	var metadataJSON []byte
	err := h.db.QueryRowContext(ctx, query, id).Scan(&status, &userID, &metadataJSON)
	if err == sql.ErrNoRows {
		return "", "", nil, commonerrors.NewNotificationNotFoundError(id)
	}
	if err != nil {
		return "", "", nil, commonerrors.NewQueryExecutionFailedError("load-notification", err)
	}

	var meta models.NotificationMetadata
	if err := json.Unmarshal(metadataJSON, &meta); err != nil {
		return "", "", nil, commonerrors.NewQueryExecutionFailedError("load-notification", err)
	}
	return status, userID, &meta, nil
}

// commitTransition applies the status change with a compare-and-set on the
// current status. Only active rows are ever mutated, which makes terminal
// states immutable at the storage layer too.
func (h *Handler) commitTransition(ctx context.Context, id string, target models.NotificationStatus, now time.Time) (bool, error) {
	query := `UPDATE notifications SET status = $1, updated_at = $2 WHERE id = $3 AND status = 'active'`

	result, err := h.db.ExecContext(ctx, query, target, now, id)
	if err != nil {
		return false, commonerrors.NewQueryExecutionFailedError("transition-status", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, commonerrors.NewQueryExecutionFailedError("transition-status", err)
	}
	return affected == 1, nil
}

func (h *Handler) invalidateCache(ctx context.Context, userID string) {
	if h.redisClient == nil || userID == "" {
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

// internal/workers/notification/create-notification/handler.go
package createnotification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"

	"wallet-workers/internal/common/database"
	commonerrors "wallet-workers/internal/common/errors"
	"wallet-workers/internal/common/logger"
	"wallet-workers/internal/common/metrics"
	"wallet-workers/internal/models"
	"wallet-workers/internal/notification"
)

const TaskType = "create-notification"

// inputSchema rejects malformed payloads before any scoring or persistence
// happens. Priority semantics (valid base values, role checks) stay in the
// notification package; this only guards structure.
var inputSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"userId": map[string]interface{}{"type": "string", "minLength": 1},
		"type":   map[string]interface{}{"type": "string", "minLength": 1},
		"title":  map[string]interface{}{"type": "string", "minLength": 1},
		"base":   map[string]interface{}{"type": "string", "minLength": 1},
	},
	"required": []interface{}{"userId", "type", "title", "base"},
}

type Handler struct {
	config      *Config
	db          *sql.DB
	redisClient *redis.Client
	esClient    *database.ElasticsearchClient
	logger      logger.Logger
}

func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, esClient *database.ElasticsearchClient, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		db:          db,
		redisClient: redisClient,
		esClient:    esClient,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing create-notification job", map[string]interface{}{
		"jobKey": job.Key,
	})

	if err := validateVariables(job.Variables); err != nil {
		h.failJob(client, job, err)
		return
	}

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
	now := time.Now().UTC()

	records, parentID, err := h.buildRecords(input, now)
	if err != nil {
		return nil, err
	}

	output := &Output{
		ParentNotificationID: parentID,
		Notifications:        make([]CreatedNotification, 0, len(records)),
		CreatedAt:            now.Format(time.RFC3339),
	}

	for _, n := range records {
		if err := h.insertNotification(ctx, n); err != nil {
			return nil, err
		}
		h.invalidateCache(ctx, n.UserID)
		h.indexNotification(ctx, n)

		metrics.NotificationsCreated.WithLabelValues(string(n.Type), string(n.Priority.Base)).Inc()
		output.Notifications = append(output.Notifications, CreatedNotification{
			NotificationID:     n.ID,
			UserID:             n.UserID,
			Role:               n.Metadata.Role,
			CalculatedPriority: n.Priority.CalculatedPriority,
		})
	}

	h.logger.Info("Notifications created", map[string]interface{}{
		"count":                len(output.Notifications),
		"parentNotificationId": parentID,
	})
	return output, nil
}

// buildRecords fans a two-party event out into one record per visible side.
// Each side is scored with its own role, so a recipient-side record can carry
// a higher calculatedPriority than its sender-side twin.
func (h *Handler) buildRecords(input *Input, now time.Time) ([]*models.Notification, string, error) {
	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityBoth
	}

	sides := make([]struct {
		userID       string
		counterparty string
		role         models.Role
	}, 0, 2)

	if visibility != models.VisibilityRecipientOnly {
		sides = append(sides, struct {
			userID       string
			counterparty string
			role         models.Role
		}{input.UserID, input.CounterpartyID, models.RoleSender})
	}
	if input.CounterpartyID != "" && visibility != models.VisibilitySenderOnly {
		sides = append(sides, struct {
			userID       string
			counterparty string
			role         models.Role
		}{input.CounterpartyID, input.UserID, models.RoleRecipient})
	}
	if len(sides) == 0 {
		return nil, "", commonerrors.NewNotificationValidationError("notification resolves to no visible side")
	}

	parentID := ""
	if len(sides) > 1 {
		parentID = uuid.New().String()
	}

	records := make([]*models.Notification, 0, len(sides))
	for _, side := range sides {
		mods := input.Modifiers
		mods.ActionRequired = mods.ActionRequired || input.ActionRequired
		if input.ExpiresAt != nil {
			mods.TimeConstraint = true
		}
		mods.Role = side.role

		score, err := notification.ComputePriority(input.Base, mods)
		if err != nil {
			return nil, "", commonerrors.NewInvalidArgumentError(err.Error())
		}

		records = append(records, &models.Notification{
			ID:          uuid.New().String(),
			UserID:      side.userID,
			Type:        input.Type,
			Title:       input.Title,
			Description: input.Description,
			Status:      models.StatusActive,
			Priority: models.Priority{
				Base:               input.Base,
				Modifiers:          mods,
				CalculatedPriority: score,
			},
			DisplayLocation: input.DisplayLocation,
			Metadata: models.NotificationMetadata{
				Gradient:             input.Gradient,
				ExpiresAt:            input.ExpiresAt,
				ActionRequired:       mods.ActionRequired,
				Dismissible:          input.Dismissible,
				RelatedEntityID:      input.RelatedEntityID,
				RelatedEntityType:    input.RelatedEntityType,
				CounterpartyID:       side.counterparty,
				Visibility:           visibility,
				Role:                 side.role,
				ParentNotificationID: parentID,
				PaymentData:          input.PaymentData,
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return records, parentID, nil
}

func (h *Handler) insertNotification(ctx context.Context, n *models.Notification) error {
	priorityJSON, err := json.Marshal(n.Priority)
	if err != nil {
		return commonerrors.NewNotificationValidationError(fmt.Sprintf("failed to serialize priority: %v", err))
	}
	metadataJSON, err := json.Marshal(n.Metadata)
	if err != nil {
		return commonerrors.NewNotificationValidationError(fmt.Sprintf("failed to serialize metadata: %v", err))
	}

	query := `
		INSERT INTO notifications (id, user_id, type, title, description, status, priority, display_location, metadata, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = h.db.ExecContext(ctx, query,
		n.ID, n.UserID, n.Type, n.Title, n.Description, n.Status,
		priorityJSON, n.DisplayLocation, metadataJSON, n.Metadata.ExpiresAt,
		n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		h.logger.WithError(err).Error("Failed to insert notification", map[string]interface{}{
			"notificationId": n.ID,
		})
		return commonerrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// invalidateCache drops the per-user feed cache. Best effort: a stale miss
// costs one extra query, not correctness.
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

// indexNotification mirrors the searchable fields into elasticsearch. Best
// effort: the record of truth is postgres, search lag is acceptable.
func (h *Handler) indexNotification(ctx context.Context, n *models.Notification) {
	if h.esClient == nil {
		return
	}
	doc := map[string]interface{}{
		"notificationId":     n.ID,
		"userId":             n.UserID,
		"type":               n.Type,
		"title":              n.Title,
		"description":        n.Description,
		"status":             n.Status,
		"calculatedPriority": n.Priority.CalculatedPriority,
		"createdAt":          n.CreatedAt.Format(time.RFC3339),
	}
	body, err := json.Marshal(doc)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to serialize search document", nil)
		return
	}
	if err := h.esClient.Index(ctx, h.config.SearchIndex, n.ID, body); err != nil {
		h.logger.WithError(err).Warn("Failed to index notification", map[string]interface{}{
			"notificationId": n.ID,
		})
	}
}

func validateVariables(variables string) error {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return commonerrors.NewNotificationValidationError(fmt.Sprintf("failed to parse job variables: %v", err))
	}
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(inputSchema), gojsonschema.NewGoLoader(raw))
	if err != nil {
		return commonerrors.NewNotificationValidationError(fmt.Sprintf("schema validation error: %v", err))
	}
	if !result.Valid() {
		return commonerrors.NewNotificationValidationError(fmt.Sprintf("invalid notification input: %v", result.Errors()))
	}
	return nil
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

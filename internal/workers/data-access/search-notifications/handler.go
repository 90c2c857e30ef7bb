// internal/workers/data-access/search-notifications/handler.go
package searchnotifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/lib/pq"

	commonerrors "wallet-workers/internal/common/errors"
	"wallet-workers/internal/common/logger"
	"wallet-workers/internal/common/metrics"
	"wallet-workers/internal/models"
	"wallet-workers/internal/notification"
)

const TaskType = "search-notifications"

// SearchService is satisfied by database.ElasticsearchClient; tests
// substitute a stub.
type SearchService interface {
	Search(ctx context.Context, index string, query []byte) ([]byte, error)
}

// Handler runs full-text search over notification titles and descriptions.
// The index lags writes, so each hit's status is re-read from postgres and
// reported at its effective value.
type Handler struct {
	config   *Config
	db       *sql.DB
	esClient SearchService
	logger   logger.Logger
}

func NewHandler(config *Config, db *sql.DB, esClient SearchService, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		db:       db,
		esClient: esClient,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing search-notifications job", map[string]interface{}{
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
	if input.ViewerID == "" {
		return nil, commonerrors.NewInvalidArgumentError("viewerId is required")
	}
	if input.Query == "" {
		return nil, commonerrors.NewInvalidArgumentError("query is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > h.config.MaxResults {
		limit = h.config.MaxResults
	}

	query, err := buildSearchQuery(input.ViewerID, input.Query, limit)
	if err != nil {
		return nil, commonerrors.NewSearchQueryFailedError(TaskType, err)
	}

	raw, err := h.esClient.Search(ctx, h.config.Index, query)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, commonerrors.NewSearchTimeoutError(TaskType)
		}
		return nil, commonerrors.NewSearchQueryFailedError(TaskType, err)
	}

	var resp esResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, commonerrors.NewSearchQueryFailedError(TaskType, err)
	}

	hits, err := h.resolveHits(ctx, input.ViewerID, &resp)
	if err != nil {
		return nil, err
	}

	return &Output{
		Hits:      hits,
		TotalHits: len(hits),
		Took:      resp.Took,
	}, nil
}

// buildSearchQuery scopes the full-text match to documents owned by the
// viewer. Counterparty-visible records have their own document on the other
// side of the fan-out, so owner scoping is also visibility scoping here.
func buildSearchQuery(viewerID, text string, limit int) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  text,
						"fields": []string{"title^2", "description"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{
						"userId": viewerID,
					},
				},
			},
		},
	})
}

// resolveHits re-reads hit statuses from postgres. Documents whose row has
// vanished are dropped; remaining hits are reported at effective status.
func (h *Handler) resolveHits(ctx context.Context, viewerID string, resp *esResponse) ([]SearchHit, error) {
	if len(resp.Hits.Hits) == 0 {
		return []SearchHit{}, nil
	}

	ids := make([]string, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		ids = append(ids, hit.ID)
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT id, status, metadata FROM notifications WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(TaskType, err)
	}
	defer rows.Close()

	now := time.Now().UTC()
	statuses := make(map[string]models.NotificationStatus, len(ids))
	for rows.Next() {
		var id string
		var status models.NotificationStatus
		var metadataJSON []byte
		if err := rows.Scan(&id, &status, &metadataJSON); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError(TaskType, err)
		}
		var meta models.NotificationMetadata
		if err := json.Unmarshal(metadataJSON, &meta); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError(TaskType, err)
		}
		statuses[id] = notification.EffectiveStatus(status, meta.ExpiresAt, now)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError(TaskType, err)
	}

	hits := make([]SearchHit, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		status, exists := statuses[hit.ID]
		if !exists {
			continue
		}
		hits = append(hits, SearchHit{
			NotificationID: hit.ID,
			Title:          hit.Source.Title,
			Description:    hit.Source.Description,
			Status:         status,
			Score:          hit.Score,
		})
	}
	return hits, nil
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

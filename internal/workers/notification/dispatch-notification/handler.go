// internal/workers/notification/dispatch-notification/handler.go
package dispatchnotification

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	commonerrors "wallet-workers/internal/common/errors"
	"wallet-workers/internal/common/http"
	"wallet-workers/internal/common/logger"
	"wallet-workers/internal/common/metrics"
	"wallet-workers/internal/models"
	"wallet-workers/pkg/registry"
)

const TaskType = "dispatch-notification"

// Interfaces over the AWS clients so tests can substitute mocks.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config     *Config
	db         *sql.DB
	logger     logger.Logger
	sesClient  SESService
	snsClient  SNSService
	httpClient *http.Client
	registry   *registry.TemplateRegistry
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) (*Handler, error) {
	reg, err := registry.LoadRegistry(config.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load template registry: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Handler{
		config:     config,
		db:         db,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient:  ses.NewFromConfig(awsCfg),
		snsClient:  sns.NewFromConfig(awsCfg),
		httpClient: http.NewClient(config.PushTimeout),
		registry:   reg,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing dispatch-notification job", map[string]interface{}{
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
	if input.UserID == "" {
		return nil, commonerrors.NewInvalidArgumentError("userId is required")
	}

	user, err := h.getUserContact(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	title, body, err := h.renderContent(input)
	if err != nil {
		return nil, err
	}

	output := &Output{
		DispatchID:     uuid.New().String(),
		NotificationID: input.NotificationID,
		Channels:       []string{},
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	failed := false

	if h.config.EmailEnabled && user.Email != "" {
		if err := h.sendEmail(ctx, user.Email, title, body); err != nil {
			h.logger.WithError(err).Error("Email dispatch failed", map[string]interface{}{
				"userId": input.UserID,
			})
			metrics.NotificationsDispatched.WithLabelValues(ChannelEmail, StatusFailed).Inc()
			failed = true
		} else {
			metrics.NotificationsDispatched.WithLabelValues(ChannelEmail, StatusSent).Inc()
			output.Channels = append(output.Channels, ChannelEmail)
		}
	}

	// SMS is reserved for urgent content: only above the priority threshold.
	if h.config.SMSEnabled && user.Phone != "" && input.Priority >= h.config.SMSPriorityThreshold {
		if err := h.sendSMS(ctx, user.Phone, body); err != nil {
			h.logger.WithError(err).Error("SMS dispatch failed", map[string]interface{}{
				"userId": input.UserID,
			})
			metrics.NotificationsDispatched.WithLabelValues(ChannelSMS, StatusFailed).Inc()
			failed = true
		} else {
			metrics.NotificationsDispatched.WithLabelValues(ChannelSMS, StatusSent).Inc()
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	// Toast-surfaced notifications are pushed to the device feed webhook.
	if h.config.PushEnabled && showsAsToast(input.DisplayLocation) {
		if err := h.sendPush(ctx, input, title, body, user.PushToken); err != nil {
			h.logger.WithError(err).Error("Push dispatch failed", map[string]interface{}{
				"userId": input.UserID,
			})
			metrics.NotificationsDispatched.WithLabelValues(ChannelPush, StatusFailed).Inc()
			failed = true
		} else {
			metrics.NotificationsDispatched.WithLabelValues(ChannelPush, StatusSent).Inc()
			output.Channels = append(output.Channels, ChannelPush)
		}
	}

	switch {
	case len(output.Channels) > 0:
		output.Status = StatusSent
	case failed:
		output.Status = StatusFailed
	default:
		output.Status = StatusSkipped
	}

	h.logger.Info("Dispatch complete", map[string]interface{}{
		"notificationId": input.NotificationID,
		"channels":       output.Channels,
		"status":         output.Status,
	})
	return output, nil
}

func (h *Handler) getUserContact(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT id, name, email, phone, push_token FROM users WHERE id = $1`

	var user models.User
	err := h.db.QueryRowContext(ctx, query, userID).
		Scan(&user.ID, &user.Name, &user.Email, &user.Phone, &user.PushToken)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewNotificationNotFoundError(userID)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("get-user-contact", err)
	}
	return &user, nil
}

func (h *Handler) renderContent(input *Input) (string, string, error) {
	if input.Title != "" {
		return input.Title, input.Description, nil
	}

	tmpl, err := h.registry.Lookup(string(input.Type), string(input.Role))
	if err != nil {
		return "", "", commonerrors.NewTemplateNotFoundError(string(input.Type))
	}

	data := map[string]interface{}{
		"userId":   input.UserID,
		"priority": input.Priority,
	}
	for k, v := range input.Data {
		data[k] = v
	}
	return registry.Render(tmpl.Title, data), registry.Render(tmpl.Body, data), nil
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
				Html: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	if err != nil {
		return commonerrors.NewDispatchFailedError(ChannelEmail, err)
	}
	return nil
}

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	if err != nil {
		return commonerrors.NewDispatchFailedError(ChannelSMS, err)
	}
	return nil
}

func (h *Handler) sendPush(ctx context.Context, input *Input, title, body, pushToken string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"notificationId": input.NotificationID,
		"userId":         input.UserID,
		"pushToken":      pushToken,
		"title":          title,
		"body":           body,
		"priority":       input.Priority,
	})
	if err != nil {
		return commonerrors.NewDispatchFailedError(ChannelPush, err)
	}

	req, err := nethttp.NewRequest(nethttp.MethodPost, h.config.PushWebhookURL, bytes.NewReader(payload))
	if err != nil {
		return commonerrors.NewDispatchFailedError(ChannelPush, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return commonerrors.NewDispatchFailedError(ChannelPush, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return commonerrors.NewDispatchFailedError(ChannelPush, fmt.Errorf("webhook returned status %d", resp.StatusCode))
	}
	return nil
}

func showsAsToast(loc models.DisplayLocation) bool {
	return loc == models.DisplayToast || loc == models.DisplayBoth
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

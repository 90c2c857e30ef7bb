// internal/workers/wallet/process-transaction-event/handler.go
package processtransactionevent

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
)

const TaskType = "process-transaction-event"

// smallAmountThreshold is in sats. Transfers below it produce low-priority
// feed entries rather than the default medium.
const smallAmountThreshold = 1000

// Handler turns a committed wallet transaction into the notification input
// for the rest of the workflow. It enriches the event with the wallet
// balance but never mutates wallet state: the ledger is upstream.
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

	h.logger.Info("Processing transaction event job", map[string]interface{}{
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
	tx := &input.Transaction
	if err := validateTransaction(tx); err != nil {
		return nil, err
	}

	wallet, err := h.getWallet(ctx, tx.WalletID)
	if err != nil {
		return nil, err
	}

	output := &Output{
		UserID:            tx.SenderID,
		CounterpartyID:    tx.RecipientID,
		Visibility:        models.VisibilityBoth,
		ExpiresAt:         tx.ExpiresAt,
		Dismissible:       true,
		RelatedEntityID:   tx.ID,
		RelatedEntityType: "transaction",
		Modifiers: models.PriorityModifiers{
			TimeConstraint: tx.ExpiresAt != nil,
			Amount:         tx.Amount,
		},
		PaymentData: map[string]interface{}{
			"transactionId": tx.ID,
			"walletId":      wallet.ID,
			"amount":        tx.Amount,
			"balance":       wallet.Balance,
			"memo":          tx.Memo,
		},
	}

	switch tx.Type {
	case models.TransactionTypePaymentRequest:
		output.Type = models.NotificationTypePaymentRequest
		output.Base = models.PriorityMedium
		output.ActionRequired = true
		output.Modifiers.ActionRequired = true
		output.DisplayLocation = models.DisplaySuggestedActions
		output.Title = "Payment request"
		output.Description = describeRequest(tx)
	default:
		output.Type = models.NotificationTypeTransaction
		output.Base = models.PriorityMedium
		if tx.Amount < smallAmountThreshold {
			output.Base = models.PriorityLow
		}
		output.DisplayLocation = models.DisplayToast
		output.Title = "Payment sent"
		output.Description = describeTransfer(tx)
	}

	h.logger.Info("Transaction event processed", map[string]interface{}{
		"transactionId": tx.ID,
		"type":          output.Type,
		"base":          output.Base,
	})
	return output, nil
}

func validateTransaction(tx *models.Transaction) error {
	if tx.ID == "" {
		return commonerrors.NewInvalidArgumentError("transaction.id is required")
	}
	if tx.SenderID == "" {
		return commonerrors.NewInvalidArgumentError("transaction.senderId is required")
	}
	if tx.WalletID == "" {
		return commonerrors.NewInvalidArgumentError("transaction.walletId is required")
	}
	if tx.Amount <= 0 {
		return commonerrors.NewInvalidArgumentError("transaction.amount must be positive")
	}
	switch tx.Type {
	case models.TransactionTypeSend, models.TransactionTypeReceive, models.TransactionTypePaymentRequest:
	default:
		return commonerrors.NewInvalidArgumentError(fmt.Sprintf("unknown transaction type %q", tx.Type))
	}
	if tx.Type == models.TransactionTypePaymentRequest && tx.RecipientID == "" {
		return commonerrors.NewInvalidArgumentError("payment request requires a recipient")
	}
	return nil
}

// getWallet reads through the redis cache. Wallet rows change on every
// ledger write, so the TTL is short.
func (h *Handler) getWallet(ctx context.Context, walletID string) (*models.Wallet, error) {
	key := h.config.CacheKeyPrefix + walletID

	if h.redisClient != nil {
		raw, err := h.redisClient.Get(ctx, key).Result()
		if err == nil {
			var wallet models.Wallet
			if err := json.Unmarshal([]byte(raw), &wallet); err == nil {
				return &wallet, nil
			}
		} else if err != redis.Nil {
			h.logger.WithError(err).Warn("Wallet cache read failed", map[string]interface{}{
				"walletId": walletID,
			})
		}
	}

	var wallet models.Wallet
	err := h.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, balance FROM wallets WHERE id = $1`, walletID).
		Scan(&wallet.ID, &wallet.UserID, &wallet.Type, &wallet.Balance)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewWalletNotFoundError(walletID)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("get-wallet", err)
	}

	if h.redisClient != nil {
		if payload, err := json.Marshal(&wallet); err == nil {
			if err := h.redisClient.Set(ctx, key, payload, h.config.CacheTTL).Err(); err != nil {
				h.logger.WithError(err).Warn("Wallet cache write failed", map[string]interface{}{
					"walletId": walletID,
				})
			}
		}
	}
	return &wallet, nil
}

func describeTransfer(tx *models.Transaction) string {
	if tx.Memo != "" {
		return fmt.Sprintf("%d sats: %s", tx.Amount, tx.Memo)
	}
	return fmt.Sprintf("%d sats", tx.Amount)
}

func describeRequest(tx *models.Transaction) string {
	if tx.Memo != "" {
		return fmt.Sprintf("Request for %d sats: %s", tx.Amount, tx.Memo)
	}
	return fmt.Sprintf("Request for %d sats", tx.Amount)
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

// internal/workers/wallet/process-transaction-event/handler_test.go
package processtransactionevent

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "wallet-workers/internal/common/errors"
	"wallet-workers/internal/common/logger"
	"wallet-workers/internal/models"
)

func createTestConfig() *Config {
	return &Config{
		Timeout:        5 * time.Second,
		CacheTTL:       time.Minute,
		CacheKeyPrefix: "wallets:",
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return db, mock
}

func expectWallet(mock sqlmock.Sqlmock, walletID string, balance int64) {
	rows := sqlmock.NewRows([]string{"id", "user_id", "type", "balance"}).
		AddRow(walletID, "user-1", "spending", balance)
	mock.ExpectQuery("SELECT id, user_id, type, balance FROM wallets").
		WithArgs(walletID).WillReturnRows(rows)
}

func sendTx(amount int64) models.Transaction {
	return models.Transaction{
		ID:          "tx-1",
		Type:        models.TransactionTypeSend,
		SenderID:    "user-1",
		RecipientID: "user-2",
		WalletID:    "wallet-1",
		Amount:      amount,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestExecute_SendTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	redisClient, redisMock := redismock.NewClientMock()
	h := NewHandler(createTestConfig(), db, redisClient, logger.NewTestLogger(t))

	redisMock.ExpectGet("wallets:wallet-1").RedisNil()
	expectWallet(mock, "wallet-1", 50000)
	redisMock.Regexp().ExpectSet("wallets:wallet-1", ".*", time.Minute).SetVal("OK")

	output, err := h.Execute(context.Background(), &Input{Transaction: sendTx(2500)})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypeTransaction, output.Type)
	assert.Equal(t, models.PriorityMedium, output.Base)
	assert.Equal(t, "user-1", output.UserID)
	assert.Equal(t, "user-2", output.CounterpartyID)
	assert.Equal(t, models.VisibilityBoth, output.Visibility)
	assert.Equal(t, models.DisplayToast, output.DisplayLocation)
	assert.False(t, output.ActionRequired)
	assert.Equal(t, int64(2500), output.Modifiers.Amount)
	assert.Equal(t, int64(50000), output.PaymentData["balance"])
}

func TestExecute_SmallAmountLowersBase(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	redisClient, redisMock := redismock.NewClientMock()
	h := NewHandler(createTestConfig(), db, redisClient, logger.NewTestLogger(t))

	redisMock.ExpectGet("wallets:wallet-1").RedisNil()
	expectWallet(mock, "wallet-1", 50000)
	redisMock.Regexp().ExpectSet("wallets:wallet-1", ".*", time.Minute).SetVal("OK")

	output, err := h.Execute(context.Background(), &Input{Transaction: sendTx(999)})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, output.Base)
}

func TestExecute_PaymentRequest(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	redisClient, redisMock := redismock.NewClientMock()
	h := NewHandler(createTestConfig(), db, redisClient, logger.NewTestLogger(t))

	redisMock.ExpectGet("wallets:wallet-1").RedisNil()
	expectWallet(mock, "wallet-1", 50000)
	redisMock.Regexp().ExpectSet("wallets:wallet-1", ".*", time.Minute).SetVal("OK")

	expiry := time.Now().Add(48 * time.Hour)
	tx := sendTx(5000)
	tx.Type = models.TransactionTypePaymentRequest
	tx.ExpiresAt = &expiry
	tx.Memo = "dinner"

	output, err := h.Execute(context.Background(), &Input{Transaction: tx})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationTypePaymentRequest, output.Type)
	assert.Equal(t, models.PriorityMedium, output.Base)
	assert.True(t, output.ActionRequired)
	assert.True(t, output.Modifiers.ActionRequired)
	assert.True(t, output.Modifiers.TimeConstraint)
	assert.Equal(t, models.DisplaySuggestedActions, output.DisplayLocation)
	require.NotNil(t, output.ExpiresAt)
	assert.Contains(t, output.Description, "dinner")
}

func TestExecute_WalletServedFromCache(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	redisClient, redisMock := redismock.NewClientMock()
	h := NewHandler(createTestConfig(), db, redisClient, logger.NewTestLogger(t))

	redisMock.ExpectGet("wallets:wallet-1").
		SetVal(`{"id":"wallet-1","userId":"user-1","type":"spending","balance":75000}`)

	output, err := h.Execute(context.Background(), &Input{Transaction: sendTx(2500)})
	require.NoError(t, err)
	assert.Equal(t, int64(75000), output.PaymentData["balance"])
	// no postgres hit expected
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_WalletNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	redisClient, redisMock := redismock.NewClientMock()
	h := NewHandler(createTestConfig(), db, redisClient, logger.NewTestLogger(t))

	redisMock.ExpectGet("wallets:wallet-1").RedisNil()
	mock.ExpectQuery("SELECT id, user_id, type, balance FROM wallets").
		WithArgs("wallet-1").WillReturnError(sql.ErrNoRows)

	_, err := h.Execute(context.Background(), &Input{Transaction: sendTx(2500)})
	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeWalletNotFound, stdErr.Code)
}

func TestExecute_ValidationFailures(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	redisClient, _ := redismock.NewClientMock()
	h := NewHandler(createTestConfig(), db, redisClient, logger.NewTestLogger(t))

	tests := []struct {
		name   string
		mutate func(*models.Transaction)
	}{
		{"missing id", func(tx *models.Transaction) { tx.ID = "" }},
		{"missing sender", func(tx *models.Transaction) { tx.SenderID = "" }},
		{"missing wallet", func(tx *models.Transaction) { tx.WalletID = "" }},
		{"zero amount", func(tx *models.Transaction) { tx.Amount = 0 }},
		{"negative amount", func(tx *models.Transaction) { tx.Amount = -5 }},
		{"unknown type", func(tx *models.Transaction) { tx.Type = "refund" }},
		{"request without recipient", func(tx *models.Transaction) {
			tx.Type = models.TransactionTypePaymentRequest
			tx.RecipientID = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := sendTx(2500)
			tt.mutate(&tx)
			_, err := h.Execute(context.Background(), &Input{Transaction: tx})
			require.Error(t, err)
			stdErr, ok := err.(*commonerrors.StandardError)
			require.True(t, ok)
			assert.Equal(t, commonerrors.ErrCodeInvalidArgument, stdErr.Code)
		})
	}
}

// internal/workers/notification/dispatch-notification/handler_test.go
package dispatchnotification

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "wallet-workers/internal/common/errors"
	commonhttp "wallet-workers/internal/common/http"
	"wallet-workers/internal/common/logger"
	"wallet-workers/internal/models"
	"wallet-workers/pkg/registry"
)

type mockSES struct {
	sendFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls    int
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls++
	if m.sendFunc != nil {
		return m.sendFunc(ctx, params, optFns...)
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	publishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       int
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls++
	if m.publishFunc != nil {
		return m.publishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{}, nil
}

func createTestConfig() *Config {
	return &Config{
		Timeout:              5 * time.Second,
		EmailEnabled:         true,
		FromEmail:            "notifications@wallet.local",
		SMSEnabled:           true,
		SMSPriorityThreshold: 70,
		PushEnabled:          false,
		PushTimeout:          time.Second,
	}
}

func testRegistry() *registry.TemplateRegistry {
	return &registry.TemplateRegistry{
		Templates: []registry.Template{
			{
				ID:               "transaction-recipient",
				NotificationType: "transaction",
				Role:             "recipient",
				Title:            "You received {{amount}} sats",
				Body:             "Payment received from {{counterpartyName}}.",
			},
		},
	}
}

func newTestHandler(t *testing.T, db *sql.DB, cfg *Config) (*Handler, *mockSES, *mockSNS) {
	sesMock := &mockSES{}
	snsMock := &mockSNS{}
	h := &Handler{
		config:     cfg,
		db:         db,
		logger:     logger.NewTestLogger(t),
		sesClient:  sesMock,
		snsClient:  snsMock,
		httpClient: commonhttp.NewClient(cfg.PushTimeout),
		registry:   testRegistry(),
	}
	return h, sesMock, snsMock
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return db, mock
}

func expectUser(mock sqlmock.Sqlmock, email, phone string) {
	rows := sqlmock.NewRows([]string{"id", "name", "email", "phone", "push_token"}).
		AddRow("user-1", "Ada", email, phone, "token-1")
	mock.ExpectQuery("SELECT id, name, email, phone, push_token FROM users").
		WithArgs("user-1").WillReturnRows(rows)
}

func TestExecute_EmailOnlyBelowSMSThreshold(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	h, sesMock, snsMock := newTestHandler(t, db, createTestConfig())

	expectUser(mock, "ada@example.com", "+15550100")

	output, err := h.Execute(context.Background(), &Input{
		NotificationID: "notif-1",
		UserID:         "user-1",
		Type:           models.NotificationTypeTransaction,
		Priority:       45,
		Title:          "Payment sent",
		Description:    "You sent 500 sats",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSent, output.Status)
	assert.Equal(t, []string{ChannelEmail}, output.Channels)
	assert.Equal(t, 1, sesMock.calls)
	assert.Equal(t, 0, snsMock.calls)
}

func TestExecute_SMSAtThreshold(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	h, sesMock, snsMock := newTestHandler(t, db, createTestConfig())

	expectUser(mock, "ada@example.com", "+15550100")

	output, err := h.Execute(context.Background(), &Input{
		NotificationID: "notif-1",
		UserID:         "user-1",
		Type:           models.NotificationTypeSecurity,
		Priority:       70,
		Title:          "New login detected",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{ChannelEmail, ChannelSMS}, output.Channels)
	assert.Equal(t, 1, sesMock.calls)
	assert.Equal(t, 1, snsMock.calls)
}

func TestExecute_NoContactChannelsSkips(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	h, _, _ := newTestHandler(t, db, createTestConfig())

	expectUser(mock, "", "")

	output, err := h.Execute(context.Background(), &Input{
		NotificationID: "notif-1",
		UserID:         "user-1",
		Type:           models.NotificationTypeSystem,
		Priority:       90,
		Title:          "Maintenance window",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, output.Status)
	assert.Empty(t, output.Channels)
}

func TestExecute_TemplateRenderedWhenTitleMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	h, sesMock, _ := newTestHandler(t, db, createTestConfig())

	expectUser(mock, "ada@example.com", "")

	var gotSubject string
	sesMock.sendFunc = func(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		gotSubject = *params.Message.Subject.Data
		return &ses.SendEmailOutput{}, nil
	}

	_, err := h.Execute(context.Background(), &Input{
		NotificationID: "notif-1",
		UserID:         "user-1",
		Type:           models.NotificationTypeTransaction,
		Role:           models.RoleRecipient,
		Priority:       45,
		Data:           map[string]interface{}{"amount": int64(2500)},
	})
	require.NoError(t, err)
	assert.Equal(t, "You received 2500 sats", gotSubject)
}

func TestExecute_TemplateNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	h, _, _ := newTestHandler(t, db, createTestConfig())

	expectUser(mock, "ada@example.com", "")

	_, err := h.Execute(context.Background(), &Input{
		NotificationID: "notif-1",
		UserID:         "user-1",
		Type:           models.NotificationTypeSecurity,
		Priority:       90,
	})
	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeTemplateNotFound, stdErr.Code)
}

func TestExecute_EmailFailureMarksFailed(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	h, sesMock, _ := newTestHandler(t, db, createTestConfig())

	expectUser(mock, "ada@example.com", "")
	sesMock.sendFunc = func(_ context.Context, _ *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
		return nil, errors.New("ses unavailable")
	}

	output, err := h.Execute(context.Background(), &Input{
		NotificationID: "notif-1",
		UserID:         "user-1",
		Type:           models.NotificationTypeSystem,
		Priority:       45,
		Title:          "Maintenance window",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, output.Status)
	assert.Empty(t, output.Channels)
}

func TestExecute_PushWebhookForToast(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	received := make(chan []byte, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		received <- body
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	cfg := createTestConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false
	cfg.PushEnabled = true
	cfg.PushWebhookURL = server.URL
	h, _, _ := newTestHandler(t, db, cfg)

	expectUser(mock, "", "")

	output, err := h.Execute(context.Background(), &Input{
		NotificationID:  "notif-1",
		UserID:          "user-1",
		Type:            models.NotificationTypeTransaction,
		Priority:        45,
		DisplayLocation: models.DisplayToast,
		Title:           "Payment received",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{ChannelPush}, output.Channels)

	select {
	case body := <-received:
		assert.Contains(t, string(body), "notif-1")
	case <-time.After(time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestExecute_UserNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	h, _, _ := newTestHandler(t, db, createTestConfig())

	mock.ExpectQuery("SELECT id, name, email, phone, push_token FROM users").
		WithArgs("user-1").WillReturnError(sql.ErrNoRows)

	_, err := h.Execute(context.Background(), &Input{
		NotificationID: "notif-1",
		UserID:         "user-1",
	})
	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeNotificationNotFound, stdErr.Code)
}

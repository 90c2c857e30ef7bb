// internal/workers/notification/transition-status/handler_test.go
package transitionstatus

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
		CacheKeyPrefix: "notifications:user:",
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return db, mock
}

func newTestHandler(t *testing.T, db *sql.DB) *Handler {
	redisClient, _ := redismock.NewClientMock()
	return NewHandler(createTestConfig(), db, redisClient, logger.NewTestLogger(t))
}

func expectLoad(mock sqlmock.Sqlmock, status models.NotificationStatus, metadata string) {
	rows := sqlmock.NewRows([]string{"status", "user_id", "metadata"}).
		AddRow(string(status), "user-1", []byte(metadata))
	mock.ExpectQuery("SELECT status, user_id, metadata FROM notifications").
		WithArgs("notif-1").WillReturnRows(rows)
}

func TestExecute_DismissActive(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	h := newTestHandler(t, db)

	expectLoad(mock, models.StatusActive, `{"dismissible":true}`)
	mock.ExpectExec("UPDATE notifications SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := h.Execute(context.Background(), &Input{NotificationID: "notif-1", Action: "dismiss"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, output.PreviousStatus)
	assert.Equal(t, models.StatusDismissed, output.NewStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_ActionAndExpireTargets(t *testing.T) {
	tests := []struct {
		action string
		want   models.NotificationStatus
	}{
		{"action", models.StatusActioned},
		{"expire", models.StatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			db, mock := setupMockDB(t)
			defer db.Close()
			h := newTestHandler(t, db)

			expectLoad(mock, models.StatusActive, `{"dismissible":false}`)
			mock.ExpectExec("UPDATE notifications SET status").
				WillReturnResult(sqlmock.NewResult(0, 1))

			output, err := h.Execute(context.Background(), &Input{NotificationID: "notif-1", Action: tt.action})
			require.NoError(t, err)
			assert.Equal(t, tt.want, output.NewStatus)
		})
	}
}

func TestExecute_TerminalStatesAbsorb(t *testing.T) {
	for _, current := range []models.NotificationStatus{
		models.StatusDismissed, models.StatusActioned, models.StatusExpired,
	} {
		t.Run(string(current), func(t *testing.T) {
			db, mock := setupMockDB(t)
			defer db.Close()
			h := newTestHandler(t, db)

			expectLoad(mock, current, `{"dismissible":true}`)

			_, err := h.Execute(context.Background(), &Input{NotificationID: "notif-1", Action: "dismiss"})
			require.Error(t, err)
			stdErr, ok := err.(*commonerrors.StandardError)
			require.True(t, ok)
			assert.Equal(t, commonerrors.ErrCodeInvalidTransition, stdErr.Code)
		})
	}
}

func TestExecute_UnknownAction(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	h := newTestHandler(t, db)

	_, err := h.Execute(context.Background(), &Input{NotificationID: "notif-1", Action: "reactivate"})
	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeInvalidArgument, stdErr.Code)
}

func TestExecute_NotDismissible(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	h := newTestHandler(t, db)

	expectLoad(mock, models.StatusActive, `{"dismissible":false}`)

	_, err := h.Execute(context.Background(), &Input{NotificationID: "notif-1", Action: "dismiss"})
	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeInvalidArgument, stdErr.Code)
}

func TestExecute_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	h := newTestHandler(t, db)

	mock.ExpectQuery("SELECT status, user_id, metadata FROM notifications").
		WithArgs("notif-1").WillReturnError(sql.ErrNoRows)

	_, err := h.Execute(context.Background(), &Input{NotificationID: "notif-1", Action: "dismiss"})
	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeNotificationNotFound, stdErr.Code)
}

func TestExecute_ConcurrentTransitionConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()
	h := newTestHandler(t, db)

	expectLoad(mock, models.StatusActive, `{"dismissible":true}`)
	// another worker committed a terminal status between read and write
	mock.ExpectExec("UPDATE notifications SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := h.Execute(context.Background(), &Input{NotificationID: "notif-1", Action: "dismiss"})
	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeNotificationConflict, stdErr.Code)
}

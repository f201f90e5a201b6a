package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirk1998/recipe-box/internal/database"
)

var testDBCounter atomic.Int64

func newTestLogger(t *testing.T) (*Logger, *sql.DB, string) {
	t.Helper()

	name := fmt.Sprintf("audit_test_%d", testDBCounter.Add(1))
	db, err := database.ConnectInMemory(name, "test-encryption-key")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logPath := filepath.Join(t.TempDir(), "audit.log")
	logger, err := NewLogger(db, logPath, false)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })

	return logger, db, logPath
}

func TestLogWritesToDatabaseAndFile(t *testing.T) {
	logger, _, logPath := newTestLogger(t)

	userID := 7
	require.NoError(t, logger.Log(&Event{
		Level:    LevelInfo,
		UserID:   &userID,
		Action:   "LOGIN_SUCCESS",
		Resource: "auth",
		Success:  true,
	}))

	events, err := logger.QueryLogs(QueryFilters{Action: "LOGIN_SUCCESS"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "LOGIN_SUCCESS", events[0].Action)
	require.NotNil(t, events[0].UserID)
	assert.Equal(t, 7, *events[0].UserID)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"action":"LOGIN_SUCCESS"`)
}

func TestQueryLogsFilters(t *testing.T) {
	logger, _, _ := newTestLogger(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, logger.Log(&Event{
			Level:    LevelWarning,
			Action:   "LOGIN_INVALID_PASSWORD",
			Resource: "auth",
			Success:  false,
		}))
	}
	require.NoError(t, logger.Log(&Event{
		Level:    LevelInfo,
		Action:   "SIGNUP_SUCCESS",
		Resource: "auth",
		Success:  true,
	}))

	failures, err := logger.QueryLogs(QueryFilters{Action: "LOGIN_INVALID_PASSWORD"})
	require.NoError(t, err)
	assert.Len(t, failures, 3)

	warnings, err := logger.QueryLogs(QueryFilters{Level: LevelWarning})
	require.NoError(t, err)
	assert.Len(t, warnings, 3)

	limited, err := logger.QueryLogs(QueryFilters{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMonitorFlagsRepeatedFailures(t *testing.T) {
	logger, _, logPath := newTestLogger(t)

	userID := 3
	for i := 0; i < 5; i++ {
		require.NoError(t, logger.Log(&Event{
			Level:    LevelWarning,
			UserID:   &userID,
			Action:   "LOGIN_INVALID_PASSWORD",
			Resource: "auth",
			Success:  false,
		}))
	}

	monitor := NewMonitor(logger)
	require.NoError(t, monitor.DetectFailedLogins())

	events, err := logger.QueryLogs(QueryFilters{Action: "FAILED_LOGIN_THRESHOLD"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, LevelCritical, events[0].Level)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "FAILED_LOGIN_THRESHOLD"))
}

package database_test

import (
	"errors"
	"testing"
	"time"

	"github.com/robalyx/warden/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHookLogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   *bun.QueryEvent
		level   zapcore.Level
		message string
	}{
		{
			name:    "successful query",
			event:   &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now()},
			level:   zapcore.DebugLevel,
			message: "Query executed",
		},
		{
			name:    "slow query",
			event:   &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now().Add(-time.Second)},
			level:   zapcore.WarnLevel,
			message: "Slow query",
		},
		{
			name:    "failed query",
			event:   &bun.QueryEvent{Query: "SELECT 1", StartTime: time.Now(), Err: errors.New("boom")},
			level:   zapcore.ErrorLevel,
			message: "Query failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.DebugLevel)
			hook := database.NewHook(zap.New(core))

			ctx := hook.BeforeQuery(t.Context(), tt.event)
			hook.AfterQuery(ctx, tt.event)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, tt.message, entries[0].Message)
			assert.Equal(t, "SELECT 1", entries[0].ContextMap()["query"])
		})
	}
}

package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "salesledger/internal/core/context"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestHelpers_UseContextLoggerWithFields(t *testing.T) {
	l, logs := observed()

	ctx := appctx.WithTrace(context.Background(), appctx.NewTraceContext("t-1", "r-1"))
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: "u-sara", Terminal: "till-2"})
	ctx = WithLogger(ctx, l.WithComponent("returns"))

	Info(ctx, "return processed", "id", "RET-240101-0001")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "returns", fields["component"])
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "u-sara", fields["staff_id"])
	assert.Equal(t, "till-2", fields["terminal"])
	assert.Equal(t, "RET-240101-0001", fields["id"])
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	l, err := New(Config{Level: "warn", Service: "salesledger", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))
}

package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"insight/pkg/errors"
)

type captureTracker struct {
	errs []error
}

func (c *captureTracker) CaptureError(_ context.Context, err error, _ map[string]string) error {
	c.errs = append(c.errs, err)
	return nil
}

func (c *captureTracker) CaptureMessage(context.Context, string, errors.Level, map[string]string) error {
	return nil
}

func (c *captureTracker) AddBreadcrumb(context.Context, string, string, errors.Level, map[string]interface{}) {
}

func (c *captureTracker) Flush(context.Context) error { return nil }

func TestErrorIsTracked(t *testing.T) {
	tracker := &captureTracker{}
	l := &Logger{SugaredLogger: zap.NewNop().Sugar(), errorTracker: tracker}

	l.Error("boom")
	l.Errorf("failed after %d attempts", 2)

	require.Len(t, tracker.errs, 2)
	assert.ErrorIs(t, tracker.errs[0], errors.ErrInternal)
	assert.Equal(t, "failed after 2 attempts", tracker.errs[1].Error())
}

func TestWithKeepsTracker(t *testing.T) {
	tracker := &captureTracker{}
	l := &Logger{SugaredLogger: zap.NewNop().Sugar(), errorTracker: tracker}

	l.With("component", "test").Error("child")

	assert.Len(t, tracker.errs, 1)
}

func TestWarnIsNotTracked(t *testing.T) {
	tracker := &captureTracker{}
	l := &Logger{SugaredLogger: zap.NewNop().Sugar(), errorTracker: tracker}

	l.Warnw("slow", "latency", "2s")
	l.Errorw("structured errors skip the tracker", "k", "v")

	assert.Empty(t, tracker.errs)
}

func TestInitLevels(t *testing.T) {
	require.NoError(t, Init("debug", "production"))
	assert.True(t, Get().Desugar().Core().Enabled(zap.DebugLevel))

	require.NoError(t, Init("not-a-level", "development"))
	assert.False(t, Get().Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, Get().Desugar().Core().Enabled(zap.InfoLevel))
}

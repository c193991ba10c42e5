package errors

import (
	"context"
)

// Tracker reports failed analysis calls to an external error tracking service.
type Tracker interface {
	// CaptureError sends an error with call tags (provider, capability, call_id)
	CaptureError(ctx context.Context, err error, tags map[string]string) error

	// CaptureMessage sends a message without an error value
	CaptureMessage(ctx context.Context, message string, level Level, tags map[string]string) error

	// AddBreadcrumb records a call step (dispatch, retry) ahead of a later capture
	AddBreadcrumb(ctx context.Context, message string, category string, level Level, data map[string]interface{})

	// Flush waits for all pending events to be sent
	Flush(ctx context.Context) error
}

// Level represents the severity level of an error or message
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

func (l Level) String() string {
	return string(l)
}

type callIDKey struct{}

// WithCallID stores the analysis call ID on ctx for trackers and loggers
func WithCallID(ctx context.Context, callID string) context.Context {
	return context.WithValue(ctx, callIDKey{}, callID)
}

// CallIDFrom returns the call ID stored by WithCallID, or ""
func CallIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(callIDKey{}).(string)
	return id
}

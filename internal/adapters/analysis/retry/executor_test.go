package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight/internal/domain/analysis"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

// scriptedDispatcher fails the ordinals listed per attempt and echoes the
// rest back as records carrying their ordinal.
type scriptedDispatcher struct {
	partial bool
	failOn  []map[int]bool
	errOn   map[int]error
	calls   [][]int
}

func (d *scriptedDispatcher) SupportsPartialFailureSignal() bool { return d.partial }

func (d *scriptedDispatcher) Dispatch(ctx context.Context, units []analysis.Unit) (*analysis.BatchOutcome, error) {
	attempt := len(d.calls)
	d.calls = append(d.calls, analysis.Ordinals(units))

	if err := d.errOn[attempt]; err != nil {
		return nil, err
	}

	var fail map[int]bool
	if attempt < len(d.failOn) {
		fail = d.failOn[attempt]
	}

	outcome := &analysis.BatchOutcome{}
	for _, u := range units {
		if fail[u.Ordinal] {
			outcome.Failed = append(outcome.Failed, u.Ordinal)
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, analysis.Item{
			Ordinal: u.Ordinal,
			Record:  analysis.Record{"index": u.Ordinal, "text": u.Text},
		})
	}
	return outcome, nil
}

func newExecutor() *Executor {
	return New(Config{Provider: "test", Capability: analysis.CapabilityEntities}, logger.Nop())
}

func makeUnits(n int) []analysis.Unit {
	units := make([]analysis.Unit, n)
	for i := range units {
		units[i] = analysis.Unit{Ordinal: i, Text: fmt.Sprintf("t%d", i)}
	}
	return units
}

func indexes(records []analysis.Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r["index"].(int)
	}
	return out
}

func TestExecute_EmptyInputDoesNotDispatch(t *testing.T) {
	d := &scriptedDispatcher{partial: true}

	result, err := newExecutor().Execute(context.Background(), d, nil)
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.Empty(t, result.Dropped)
	assert.Equal(t, StateComplete, result.State)
	assert.Empty(t, d.calls)
}

func TestExecute_AllSucceedNoRetry(t *testing.T) {
	d := &scriptedDispatcher{partial: true}

	result, err := newExecutor().Execute(context.Background(), d, makeUnits(4))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2, 3}, indexes(result.Records))
	assert.False(t, result.Retried)
	assert.Len(t, d.calls, 1)
}

func TestExecute_RetryRecoversAll(t *testing.T) {
	d := &scriptedDispatcher{
		partial: true,
		failOn:  []map[int]bool{{1: true, 3: true}},
	}

	result, err := newExecutor().Execute(context.Background(), d, makeUnits(5))
	require.NoError(t, err)

	require.Len(t, d.calls, 2)
	assert.Equal(t, []int{1, 3}, d.calls[1], "only failed ordinals are resubmitted, in order")
	assert.Len(t, result.Records, 5)
	assert.Equal(t, []int{0, 2, 4, 1, 3}, indexes(result.Records))
	assert.Empty(t, result.Dropped)
	assert.True(t, result.Retried)
	assert.Equal(t, StateComplete, result.State)
}

func TestExecute_FailingTwiceIsDroppedSilently(t *testing.T) {
	d := &scriptedDispatcher{
		partial: true,
		failOn:  []map[int]bool{{2: true}, {2: true}},
	}

	result, err := newExecutor().Execute(context.Background(), d, makeUnits(4))
	require.NoError(t, err)

	assert.Len(t, result.Records, 3)
	assert.NotContains(t, indexes(result.Records), 2)
	assert.Equal(t, []int{2}, result.Dropped)
	assert.Len(t, d.calls, 2, "at most one retry")
}

func TestExecute_NoPartialSignalNeverRetries(t *testing.T) {
	d := &scriptedDispatcher{
		partial: false,
		failOn:  []map[int]bool{{0: true}},
	}

	result, err := newExecutor().Execute(context.Background(), d, makeUnits(3))
	require.NoError(t, err)

	assert.Len(t, d.calls, 1)
	assert.Equal(t, []int{1, 2}, indexes(result.Records))
	assert.Equal(t, []int{0}, result.Dropped)
	assert.False(t, result.Retried)
}

func TestExecute_InitialTransportFailure(t *testing.T) {
	cause := errors.NewTransportError("BatchDetectEntities", 503, errors.New("service unavailable"))
	d := &scriptedDispatcher{partial: true, errOn: map[int]error{0: cause}}

	result, err := newExecutor().Execute(context.Background(), d, makeUnits(2))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, errors.ErrTransportFailure))
}

func TestExecute_RetryTransportFailureFailsCall(t *testing.T) {
	cause := errors.NewTransportError("BatchDetectEntities", 0, context.DeadlineExceeded)
	d := &scriptedDispatcher{
		partial: true,
		failOn:  []map[int]bool{{0: true, 1: true}},
		errOn:   map[int]error{1: cause},
	}

	result, err := newExecutor().Execute(context.Background(), d, makeUnits(3))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, errors.ErrTransportFailure))
	assert.Contains(t, err.Error(), "2 units unresolved")
}

func TestExecute_RetryDelayHonorsCancellation(t *testing.T) {
	d := &scriptedDispatcher{
		partial: true,
		failOn:  []map[int]bool{{0: true}},
	}
	exec := New(Config{Provider: "test", Capability: analysis.CapabilitySentiment, RetryDelay: time.Hour}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := exec.Execute(ctx, d, makeUnits(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTransportFailure))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, d.calls, 1)
}

func TestPending_IgnoresUnknownAndDuplicates(t *testing.T) {
	units := makeUnits(4)
	got := pending(units, []int{3, 9, 1, 3})
	assert.Equal(t, []int{1, 3}, analysis.Ordinals(got))
}

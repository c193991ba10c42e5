package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDispatch(t *testing.T) {
	before := testutil.ToFloat64(Dispatches.WithLabelValues("aws", "entities", "initial", "success"))
	failedBefore := testutil.ToFloat64(BatchItemFailures.WithLabelValues("aws", "entities", "initial"))

	RecordDispatch("aws", "entities", "initial", 120*time.Millisecond, 2, nil)

	assert.Equal(t, before+1, testutil.ToFloat64(Dispatches.WithLabelValues("aws", "entities", "initial", "success")))
	assert.Equal(t, failedBefore+2, testutil.ToFloat64(BatchItemFailures.WithLabelValues("aws", "entities", "initial")))
}

func TestRecordDispatch_Error(t *testing.T) {
	before := testutil.ToFloat64(Dispatches.WithLabelValues("azure", "sentiment", "initial", "error"))

	RecordDispatch("azure", "sentiment", "initial", time.Second, 0, errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(Dispatches.WithLabelValues("azure", "sentiment", "initial", "error")))
}

func TestRecordDropped_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(DroppedOrdinals.WithLabelValues("aws", "keyPhrases"))

	RecordDropped("aws", "keyPhrases", 0)
	assert.Equal(t, before, testutil.ToFloat64(DroppedOrdinals.WithLabelValues("aws", "keyPhrases")))

	RecordDropped("aws", "keyPhrases", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(DroppedOrdinals.WithLabelValues("aws", "keyPhrases")))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("analysis", "Bad Request"))

	RecordHTTPRequest("analysis", http.StatusBadRequest)

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("analysis", "Bad Request")))
}

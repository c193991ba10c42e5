package aws

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/comprehend"
	"github.com/aws/aws-sdk-go/service/comprehend/comprehendiface"

	"insight/internal/domain/analysis"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

// comprehendDispatcher sends text units through the BatchDetect* operations.
// Units are split into batches of maxBatchSize and every batch request is
// built before the first one is sent.
type comprehendDispatcher struct {
	api        comprehendiface.ComprehendAPI
	capability analysis.Capability
	language   string
	log        *logger.Logger
}

type batchCall func(ctx context.Context, outcome *analysis.BatchOutcome) error

func (d *comprehendDispatcher) SupportsPartialFailureSignal() bool {
	return true
}

func (d *comprehendDispatcher) Dispatch(ctx context.Context, units []analysis.Unit) (*analysis.BatchOutcome, error) {
	batches := chunk(units, maxBatchSize)
	calls := make([]batchCall, len(batches))
	for i, batch := range batches {
		call, err := d.prepare(batch)
		if err != nil {
			return nil, err
		}
		calls[i] = call
	}

	outcome := &analysis.BatchOutcome{}
	for _, call := range calls {
		if err := call(ctx, outcome); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

func (d *comprehendDispatcher) prepare(batch []analysis.Unit) (batchCall, error) {
	switch d.capability {
	case analysis.CapabilityEntities:
		input, err := buildEntitiesInput(batch, d.language)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, outcome *analysis.BatchOutcome) error {
			out, err := d.api.BatchDetectEntitiesWithContext(ctx, input)
			if err != nil {
				return transportError("BatchDetectEntities", err)
			}
			for _, item := range out.ResultList {
				if ordinal, ok := d.ordinal(batch, item.Index); ok {
					outcome.Succeeded = append(outcome.Succeeded, analysis.Item{Ordinal: ordinal, Record: mapEntities(ordinal, item)})
				}
			}
			d.collectFailures(batch, out.ErrorList, outcome)
			return nil
		}, nil

	case analysis.CapabilitySentiment:
		input, err := buildSentimentInput(batch, d.language)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, outcome *analysis.BatchOutcome) error {
			out, err := d.api.BatchDetectSentimentWithContext(ctx, input)
			if err != nil {
				return transportError("BatchDetectSentiment", err)
			}
			for _, item := range out.ResultList {
				if ordinal, ok := d.ordinal(batch, item.Index); ok {
					outcome.Succeeded = append(outcome.Succeeded, analysis.Item{Ordinal: ordinal, Record: mapSentiment(ordinal, item)})
				}
			}
			d.collectFailures(batch, out.ErrorList, outcome)
			return nil
		}, nil

	case analysis.CapabilityKeyPhrases:
		input, err := buildKeyPhrasesInput(batch, d.language)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context, outcome *analysis.BatchOutcome) error {
			out, err := d.api.BatchDetectKeyPhrasesWithContext(ctx, input)
			if err != nil {
				return transportError("BatchDetectKeyPhrases", err)
			}
			for _, item := range out.ResultList {
				if ordinal, ok := d.ordinal(batch, item.Index); ok {
					outcome.Succeeded = append(outcome.Succeeded, analysis.Item{Ordinal: ordinal, Record: mapKeyPhrases(ordinal, item)})
				}
			}
			d.collectFailures(batch, out.ErrorList, outcome)
			return nil
		}, nil

	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedCapability, "comprehend: %s", d.capability)
	}
}

// ordinal maps a batch-relative index back to the unit's call ordinal.
func (d *comprehendDispatcher) ordinal(batch []analysis.Unit, index *int64) (int, bool) {
	if index == nil || *index < 0 || *index >= int64(len(batch)) {
		d.log.Warnw("Ignoring result with out of range index",
			"index", aws.Int64Value(index),
			"batch_size", len(batch),
		)
		return 0, false
	}
	return batch[*index].Ordinal, true
}

func (d *comprehendDispatcher) collectFailures(batch []analysis.Unit, failures []*comprehend.BatchItemError, outcome *analysis.BatchOutcome) {
	for _, f := range failures {
		if f == nil {
			continue
		}
		ordinal, ok := d.ordinal(batch, f.Index)
		if !ok {
			continue
		}
		d.log.Debugw("Batch item failed",
			"ordinal", ordinal,
			"code", aws.StringValue(f.ErrorCode),
			"message", aws.StringValue(f.ErrorMessage),
		)
		outcome.Failed = append(outcome.Failed, ordinal)
	}
}

// transportError classifies an SDK error. Client-side parameter validation
// is invalid input; everything else, including 4xx service errors, is a
// transport failure carrying the status code when known.
func transportError(op string, err error) error {
	var aerr awserr.Error
	if errors.As(err, &aerr) && aerr.Code() == request.InvalidParameterErrCode {
		return errors.NewValidationError("request", aerr.Message(), op)
	}

	status := 0
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) {
		status = reqErr.StatusCode()
	}
	return errors.NewTransportError(op, status, err)
}

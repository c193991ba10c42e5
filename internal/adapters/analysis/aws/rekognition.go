package aws

import (
	"context"

	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"

	"insight/internal/domain/analysis"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

// visionOp pairs a Rekognition call with its request builder and mapper.
type visionOp struct {
	name string
	run  func(ctx context.Context, api rekognitioniface.RekognitionAPI, image []byte, opts analysis.Options) (analysis.Record, error)
}

var visionOps = map[analysis.VisionOperation]visionOp{
	analysis.VisionDetectLabels: {
		name: "DetectLabels",
		run: func(ctx context.Context, api rekognitioniface.RekognitionAPI, image []byte, opts analysis.Options) (analysis.Record, error) {
			out, err := api.DetectLabelsWithContext(ctx, buildDetectLabelsInput(image, opts))
			if err != nil {
				return nil, transportError("DetectLabels", err)
			}
			return mapLabels(out), nil
		},
	},
	analysis.VisionDetectText: {
		name: "DetectText",
		run: func(ctx context.Context, api rekognitioniface.RekognitionAPI, image []byte, opts analysis.Options) (analysis.Record, error) {
			out, err := api.DetectTextWithContext(ctx, buildDetectTextInput(image))
			if err != nil {
				return nil, transportError("DetectText", err)
			}
			return mapTextDetections(out), nil
		},
	},
	analysis.VisionDetectModerationLabels: {
		name: "DetectModerationLabels",
		run: func(ctx context.Context, api rekognitioniface.RekognitionAPI, image []byte, opts analysis.Options) (analysis.Record, error) {
			out, err := api.DetectModerationLabelsWithContext(ctx, buildDetectModerationLabelsInput(image, opts))
			if err != nil {
				return nil, transportError("DetectModerationLabels", err)
			}
			return mapModerationLabels(out), nil
		},
	},
}

func lookupVisionOp(op analysis.VisionOperation) (visionOp, error) {
	v, ok := visionOps[op]
	if !ok {
		return visionOp{}, errors.NewOptionError(analysis.OptVisionOperation, "not supported by aws", string(op))
	}
	return v, nil
}

// ImageFetcher downloads image bytes referenced by URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// rekognitionDispatcher runs one vision operation per image unit. Rekognition
// has no batch form, so there is no partial failure signal.
type rekognitionDispatcher struct {
	api     rekognitioniface.RekognitionAPI
	fetcher ImageFetcher
	op      visionOp
	opts    analysis.Options
	log     *logger.Logger
}

func (d *rekognitionDispatcher) SupportsPartialFailureSignal() bool {
	return false
}

func (d *rekognitionDispatcher) Dispatch(ctx context.Context, units []analysis.Unit) (*analysis.BatchOutcome, error) {
	outcome := &analysis.BatchOutcome{}
	for _, u := range units {
		image, err := d.image(ctx, u)
		if err != nil {
			return nil, err
		}
		record, err := d.op.run(ctx, d.api, image, d.opts)
		if err != nil {
			return nil, err
		}
		outcome.Succeeded = append(outcome.Succeeded, analysis.Item{Ordinal: u.Ordinal, Record: record})
	}
	return outcome, nil
}

func (d *rekognitionDispatcher) image(ctx context.Context, u analysis.Unit) ([]byte, error) {
	if !u.IsImage() {
		return nil, errors.NewValidationError("url", "image record needs a url", u.Fields)
	}
	if len(u.Payload) > 0 {
		return u.Payload, nil
	}
	return d.fetcher.Fetch(ctx, u.URL)
}

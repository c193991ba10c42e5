package aws

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/comprehend"
	"github.com/aws/aws-sdk-go/service/rekognition"

	"insight/internal/domain/analysis"
	"insight/pkg/errors"
)

// maxBatchSize is the BatchDetect* document limit.
const maxBatchSize = 25

// textList collects the text of each unit in order. Structured units
// contribute their "text" field, which must be a string.
func textList(units []analysis.Unit) ([]*string, error) {
	list := make([]*string, len(units))
	for i, u := range units {
		text, ok := u.Content()
		if !ok {
			return nil, errors.NewValidationError("text", "structured unit needs a string text field", u.Fields["text"])
		}
		list[i] = aws.String(text)
	}
	return list, nil
}

// chunk splits units into batches of at most size, keeping order.
func chunk(units []analysis.Unit, size int) [][]analysis.Unit {
	batches := make([][]analysis.Unit, 0, (len(units)+size-1)/size)
	for start := 0; start < len(units); start += size {
		end := start + size
		if end > len(units) {
			end = len(units)
		}
		batches = append(batches, units[start:end])
	}
	return batches
}

func buildEntitiesInput(units []analysis.Unit, language string) (*comprehend.BatchDetectEntitiesInput, error) {
	list, err := textList(units)
	if err != nil {
		return nil, err
	}
	return &comprehend.BatchDetectEntitiesInput{
		TextList:     list,
		LanguageCode: aws.String(language),
	}, nil
}

func buildSentimentInput(units []analysis.Unit, language string) (*comprehend.BatchDetectSentimentInput, error) {
	list, err := textList(units)
	if err != nil {
		return nil, err
	}
	return &comprehend.BatchDetectSentimentInput{
		TextList:     list,
		LanguageCode: aws.String(language),
	}, nil
}

func buildKeyPhrasesInput(units []analysis.Unit, language string) (*comprehend.BatchDetectKeyPhrasesInput, error) {
	list, err := textList(units)
	if err != nil {
		return nil, err
	}
	return &comprehend.BatchDetectKeyPhrasesInput{
		TextList:     list,
		LanguageCode: aws.String(language),
	}, nil
}

func buildDetectLabelsInput(image []byte, opts analysis.Options) *rekognition.DetectLabelsInput {
	input := &rekognition.DetectLabelsInput{
		Image:     &rekognition.Image{Bytes: image},
		MaxLabels: aws.Int64(int64(opts.MaxLabels)),
	}
	if opts.MinConfidence > 0 {
		input.MinConfidence = aws.Float64(opts.MinConfidence)
	}
	return input
}

func buildDetectTextInput(image []byte) *rekognition.DetectTextInput {
	return &rekognition.DetectTextInput{
		Image: &rekognition.Image{Bytes: image},
	}
}

func buildDetectModerationLabelsInput(image []byte, opts analysis.Options) *rekognition.DetectModerationLabelsInput {
	input := &rekognition.DetectModerationLabelsInput{
		Image: &rekognition.Image{Bytes: image},
	}
	if opts.MinConfidence > 0 {
		input.MinConfidence = aws.Float64(opts.MinConfidence)
	}
	return input
}

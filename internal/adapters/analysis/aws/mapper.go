package aws

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/comprehend"
	"github.com/aws/aws-sdk-go/service/rekognition"

	"insight/internal/domain/analysis"
)

// Mappers project SDK result structs onto records with lowerCamel keys.
// They read only their argument and never mutate it.

func mapSentiment(ordinal int, item *comprehend.BatchDetectSentimentItemResult) analysis.Record {
	record := analysis.Record{
		"index":     ordinal,
		"sentiment": aws.StringValue(item.Sentiment),
	}
	if s := item.SentimentScore; s != nil {
		record["sentimentScore"] = map[string]any{
			"positive": aws.Float64Value(s.Positive),
			"negative": aws.Float64Value(s.Negative),
			"neutral":  aws.Float64Value(s.Neutral),
			"mixed":    aws.Float64Value(s.Mixed),
		}
	}
	return record
}

func mapEntities(ordinal int, item *comprehend.BatchDetectEntitiesItemResult) analysis.Record {
	entities := make([]map[string]any, 0, len(item.Entities))
	for _, e := range item.Entities {
		if e == nil {
			continue
		}
		entities = append(entities, map[string]any{
			"text":        aws.StringValue(e.Text),
			"type":        aws.StringValue(e.Type),
			"score":       aws.Float64Value(e.Score),
			"beginOffset": aws.Int64Value(e.BeginOffset),
			"endOffset":   aws.Int64Value(e.EndOffset),
		})
	}
	return analysis.Record{
		"index":    ordinal,
		"entities": entities,
	}
}

func mapKeyPhrases(ordinal int, item *comprehend.BatchDetectKeyPhrasesItemResult) analysis.Record {
	phrases := make([]map[string]any, 0, len(item.KeyPhrases))
	for _, kp := range item.KeyPhrases {
		if kp == nil {
			continue
		}
		phrases = append(phrases, map[string]any{
			"text":        aws.StringValue(kp.Text),
			"score":       aws.Float64Value(kp.Score),
			"beginOffset": aws.Int64Value(kp.BeginOffset),
			"endOffset":   aws.Int64Value(kp.EndOffset),
		})
	}
	return analysis.Record{
		"index":      ordinal,
		"keyPhrases": phrases,
	}
}

// Rekognition outputs are projected structurally so fields such as
// aliases, categories, image properties and model versions survive.

func mapLabels(out *rekognition.DetectLabelsOutput) analysis.Record {
	return projectOutput(out, "labels")
}

func mapTextDetections(out *rekognition.DetectTextOutput) analysis.Record {
	return projectOutput(out, "textDetections")
}

func mapModerationLabels(out *rekognition.DetectModerationLabelsOutput) analysis.Record {
	return projectOutput(out, "moderationLabels")
}

// projectOutput projects an SDK output and guarantees listKey is present.
func projectOutput(out any, listKey string) analysis.Record {
	record := analysis.Record{}
	if m, ok := project(out).(map[string]any); ok {
		for k, v := range m {
			record[k] = v
		}
	}
	if _, ok := record[listKey]; !ok {
		record[listKey] = []map[string]any{}
	}
	return record
}

package azure

import (
	"encoding/json"
	"net/url"
	"strings"

	"insight/internal/domain/analysis"
	"insight/pkg/errors"
)

const (
	contentTypeJSON  = "application/json"
	contentTypeOctet = "application/octet-stream"
)

var textPaths = map[analysis.Capability]string{
	analysis.CapabilitySentiment:  "/text/analytics/v2.1/sentiment",
	analysis.CapabilityKeyPhrases: "/text/analytics/v2.1/keyPhrases",
	analysis.CapabilityEntities:   "/text/analytics/v2.1/entities",
}

// visionEndpoint describes one Computer Vision operation.
type visionEndpoint struct {
	path  string
	query func(opts analysis.Options) url.Values
}

var visionEndpoints = map[analysis.VisionOperation]visionEndpoint{
	analysis.VisionAnalyze: {
		path: "/vision/v2.1/analyze",
		query: func(opts analysis.Options) url.Values {
			q := url.Values{}
			if len(opts.VisualFeatures) > 0 {
				q.Set("visualFeatures", strings.Join(opts.VisualFeatures, ","))
			}
			if len(opts.Details) > 0 {
				q.Set("details", strings.Join(opts.Details, ","))
			}
			q.Set("language", opts.Language)
			return q
		},
	},
	analysis.VisionDescribe: {
		path: "/vision/v2.1/describe",
		query: func(opts analysis.Options) url.Values {
			return url.Values{"language": {opts.Language}}
		},
	},
	analysis.VisionTag: {
		path: "/vision/v2.1/tag",
		query: func(opts analysis.Options) url.Values {
			return url.Values{"language": {opts.Language}}
		},
	},
	analysis.VisionOCR: {
		path: "/vision/v2.1/ocr",
		query: func(opts analysis.Options) url.Values {
			return url.Values{"language": {opts.Language}, "detectOrientation": {"true"}}
		},
	},
}

func lookupVisionEndpoint(op analysis.VisionOperation) (visionEndpoint, error) {
	e, ok := visionEndpoints[op]
	if !ok {
		return visionEndpoint{}, errors.NewOptionError(analysis.OptVisionOperation, "not supported by azure", string(op))
	}
	return e, nil
}

type documentsRequest struct {
	Documents []map[string]any `json:"documents"`
}

type documentsResponse struct {
	Documents []map[string]any `json:"documents"`
	Errors    []documentError  `json:"errors"`
}

type documentError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// buildDocuments turns units into documents. Structured units pass through
// with "id" defaulted to the ordinal and "language" to the requested language;
// the caller's record is copied, never mutated. It also returns the unit
// ordinal for every document id.
func buildDocuments(units []analysis.Unit, language string) (*documentsRequest, map[string]int, error) {
	req := &documentsRequest{Documents: make([]map[string]any, 0, len(units))}
	ordinals := make(map[string]int, len(units))

	for _, u := range units {
		text, ok := u.Content()
		if !ok {
			return nil, nil, errors.NewValidationError("text", "structured unit needs a string text field", u.Fields["text"])
		}

		doc := make(map[string]any, len(u.Fields)+3)
		for k, v := range u.Fields {
			doc[k] = v
		}
		id, err := u.ID()
		if err != nil {
			return nil, nil, err
		}
		if _, seen := ordinals[id]; seen {
			return nil, nil, errors.NewValidationError("id", "duplicate document id", id)
		}
		doc["id"] = id
		doc["text"] = text
		if _, set := doc["language"]; !set && language != "" {
			doc["language"] = language
		}

		ordinals[id] = u.Ordinal
		req.Documents = append(req.Documents, doc)
	}
	return req, ordinals, nil
}

// buildVisionBody picks the request body for an image unit: raw bytes,
// the caller's record, or {"url": ...}.
func buildVisionBody(u analysis.Unit) ([]byte, string, error) {
	switch {
	case len(u.Payload) > 0:
		return u.Payload, contentTypeOctet, nil
	case u.Fields != nil:
		body, err := json.Marshal(u.Fields)
		if err != nil {
			return nil, "", errors.NewValidationError("input", err.Error(), u.Fields)
		}
		return body, contentTypeJSON, nil
	case u.URL != "":
		body, err := json.Marshal(map[string]string{"url": u.URL})
		if err != nil {
			return nil, "", errors.Wrap(err, "encode vision request")
		}
		return body, contentTypeJSON, nil
	default:
		return nil, "", errors.NewValidationError("input", "image unit is empty", nil)
	}
}

// parseDocuments keeps documents in response order. Documents listed under
// "errors" come back as failed ordinals.
func parseDocuments(body []byte, ordinals map[string]int) (*analysis.BatchOutcome, []documentError, error) {
	var resp documentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, errors.Wrap(err, "decode documents response")
	}

	outcome := &analysis.BatchOutcome{}
	for _, doc := range resp.Documents {
		id, _ := doc["id"].(string)
		ordinal, ok := ordinals[id]
		if !ok {
			ordinal = -1
		}
		outcome.Succeeded = append(outcome.Succeeded, analysis.Item{Ordinal: ordinal, Record: analysis.Record(doc)})
	}

	for _, e := range resp.Errors {
		if ordinal, ok := ordinals[e.ID]; ok {
			outcome.Failed = append(outcome.Failed, ordinal)
		}
	}
	return outcome, resp.Errors, nil
}

// parseVision returns the top-level response object as one record.
func parseVision(body []byte) (analysis.Record, error) {
	var record analysis.Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, errors.Wrap(err, "decode vision response")
	}
	return record, nil
}

func encodeJSON(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, errors.NewValidationError("input", err.Error(), nil)
	}
	return body, nil
}

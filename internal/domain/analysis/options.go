package analysis

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"insight/pkg/errors"
)

// VisionOperation selects the image analysis a provider runs. The set is closed.
type VisionOperation string

const (
	// Rekognition
	VisionDetectLabels           VisionOperation = "DETECT_LABELS"
	VisionDetectText             VisionOperation = "DETECT_TEXT"
	VisionDetectModerationLabels VisionOperation = "DETECT_MODERATION_LABELS"

	// Computer Vision
	VisionAnalyze  VisionOperation = "ANALYZE"
	VisionDescribe VisionOperation = "DESCRIBE"
	VisionTag      VisionOperation = "TAG"
	VisionOCR      VisionOperation = "OCR"
)

var visionOperations = []VisionOperation{
	VisionDetectLabels,
	VisionDetectText,
	VisionDetectModerationLabels,
	VisionAnalyze,
	VisionDescribe,
	VisionTag,
	VisionOCR,
}

// ParseVisionOperation validates s against the closed set of operations.
// Matching is case-insensitive.
func ParseVisionOperation(s string) (VisionOperation, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for _, op := range visionOperations {
		if string(op) == upper {
			return op, nil
		}
	}
	return "", errors.NewOptionError("visionOperation", "unknown vision operation", s)
}

// Option keys accepted by Resolve
const (
	OptRegion            = "region"
	OptLanguage          = "language"
	OptConnectionTimeout = "connectionTimeout"
	OptRequestTimeout    = "requestTimeout"
	OptMaxLabels         = "maxLabels"
	OptVisionOperation   = "visionOperation"
	OptRekognitionType   = "rekognitionType"
	OptVisualFeatures    = "visualFeatures"
	OptDetails           = "details"
	OptMinConfidence     = "minConfidence"
)

// Options is the resolved per-call provider configuration.
type Options struct {
	Region            string
	Language          string
	ConnectionTimeout time.Duration
	RequestTimeout    time.Duration
	MaxLabels         int
	VisionOperation   VisionOperation
	VisualFeatures    []string
	Details           []string
	MinConfidence     float64
}

// DefaultOptions returns the base defaults shared by every provider.
func DefaultOptions() Options {
	return Options{
		Region:            "us-east-2",
		Language:          "en",
		ConnectionTimeout: 30 * time.Second,
		RequestTimeout:    60 * time.Second,
		MaxLabels:         10,
		VisionOperation:   VisionDetectLabels,
	}
}

// Resolve overlays caller values onto defaults field by field, visiting keys
// in sorted order. Unknown keys are ignored. A value of the wrong type, or a vision operation outside the
// closed set, fails with ErrInvalidOption naming the field.
func Resolve(defaults Options, raw map[string]any) (Options, error) {
	opts := defaults
	opts.VisualFeatures = append([]string(nil), defaults.VisualFeatures...)
	opts.Details = append([]string(nil), defaults.Details...)

	// sorted so the first invalid field reported is stable across calls
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var err error
	for _, key := range keys {
		value := raw[key]
		if value == nil {
			continue
		}
		switch key {
		case OptRegion:
			opts.Region, err = asString(key, value)
		case OptLanguage:
			opts.Language, err = asString(key, value)
		case OptConnectionTimeout:
			opts.ConnectionTimeout, err = asDuration(key, value)
		case OptRequestTimeout:
			opts.RequestTimeout, err = asDuration(key, value)
		case OptMaxLabels:
			opts.MaxLabels, err = asInt(key, value)
			if err == nil && opts.MaxLabels < 1 {
				err = errors.NewOptionError(key, "must be at least 1", value)
			}
		case OptMinConfidence:
			opts.MinConfidence, err = asFloat(key, value)
			if err == nil && (opts.MinConfidence < 0 || opts.MinConfidence > 100) {
				err = errors.NewOptionError(key, "must be between 0 and 100", value)
			}
		case OptVisualFeatures:
			opts.VisualFeatures, err = asStringList(key, value)
		case OptDetails:
			opts.Details, err = asStringList(key, value)
		}
		if err != nil {
			return Options{}, err
		}
	}

	// visionOperation wins over its alias when both are present
	for _, key := range []string{OptRekognitionType, OptVisionOperation} {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		s, err := asString(key, value)
		if err != nil {
			return Options{}, err
		}
		op, err := ParseVisionOperation(s)
		if err != nil {
			return Options{}, errors.NewOptionError(key, "unknown vision operation", value)
		}
		opts.VisionOperation = op
	}

	return opts, nil
}

func asString(field string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", errors.NewOptionError(field, "expected a string", v)
	}
	return s, nil
}

// asInt accepts Go integers, integral JSON numbers and json.Number within
// the int range. Strings are rejected even when numeric.
func asInt(field string, v any) (int, error) {
	var i int64
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		i = n
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, errors.NewOptionError(field, "expected an integer", v)
		}
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, errors.NewOptionError(field, "integer out of range", v)
		}
		i = int64(n)
	case json.Number:
		parsed, err := n.Int64()
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
				return 0, errors.NewOptionError(field, "integer out of range", v)
			}
			return 0, errors.NewOptionError(field, "expected an integer", v)
		}
		i = parsed
	default:
		return 0, errors.NewOptionError(field, "expected an integer", v)
	}
	if i < math.MinInt || i > math.MaxInt {
		return 0, errors.NewOptionError(field, "integer out of range", v)
	}
	return int(i), nil
}

func asFloat(field string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, errors.NewOptionError(field, "expected a number", v)
		}
		return f, nil
	default:
		return 0, errors.NewOptionError(field, "expected a number", v)
	}
}

// maxDurationMillis is the largest millisecond count a time.Duration holds.
const maxDurationMillis = math.MaxInt64 / int64(time.Millisecond)

// asDuration reads integral milliseconds or a Go duration string ("15s").
func asDuration(field string, v any) (time.Duration, error) {
	var d time.Duration
	if s, ok := v.(string); ok {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, errors.NewOptionError(field, "expected milliseconds or a duration", v)
		}
		d = parsed
	} else {
		ms, err := asInt(field, v)
		if err != nil {
			return 0, errors.NewOptionError(field, "expected milliseconds or a duration", v)
		}
		if int64(ms) > maxDurationMillis {
			return 0, errors.NewOptionError(field, "duration out of range", v)
		}
		d = time.Duration(ms) * time.Millisecond
	}
	if d <= 0 {
		return 0, errors.NewOptionError(field, "must be positive", v)
	}
	return d, nil
}

func asStringList(field string, v any) ([]string, error) {
	switch l := v.(type) {
	case []string:
		return append([]string(nil), l...), nil
	case []any:
		out := make([]string, len(l))
		for i, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, errors.NewOptionError(field, "expected a list of strings", v)
			}
			out[i] = s
		}
		return out, nil
	case string:
		if l == "" {
			return nil, nil
		}
		parts := strings.Split(l, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	default:
		return nil, errors.NewOptionError(field, "expected a list of strings", v)
	}
}

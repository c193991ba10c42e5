package analysis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insight/pkg/errors"
)

func TestResolve_DefaultsWhenEmpty(t *testing.T) {
	opts, err := Resolve(DefaultOptions(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}

func TestResolve_OverlaysFieldByField(t *testing.T) {
	opts, err := Resolve(DefaultOptions(), map[string]any{"region": "eu-west-1"})
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", opts.Region)
	assert.Equal(t, "en", opts.Language)
	assert.Equal(t, 30*time.Second, opts.ConnectionTimeout)
	assert.Equal(t, 60*time.Second, opts.RequestTimeout)
	assert.Equal(t, 10, opts.MaxLabels)
	assert.Equal(t, VisionDetectLabels, opts.VisionOperation)
}

func TestResolve_IgnoresUnknownKeys(t *testing.T) {
	opts, err := Resolve(DefaultOptions(), map[string]any{"colour": "blue", "maxLabels": 3})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.MaxLabels)
}

func TestResolve_Coercion(t *testing.T) {
	opts, err := Resolve(DefaultOptions(), map[string]any{
		"maxLabels":         float64(25),
		"connectionTimeout": json.Number("1500"),
		"requestTimeout":    "2m",
		"minConfidence":     80,
		"visualFeatures":    []any{"Categories", "Tags"},
		"details":           "Celebrities, Landmarks",
	})
	require.NoError(t, err)

	assert.Equal(t, 25, opts.MaxLabels)
	assert.Equal(t, 1500*time.Millisecond, opts.ConnectionTimeout)
	assert.Equal(t, 2*time.Minute, opts.RequestTimeout)
	assert.Equal(t, 80.0, opts.MinConfidence)
	assert.Equal(t, []string{"Categories", "Tags"}, opts.VisualFeatures)
	assert.Equal(t, []string{"Celebrities", "Landmarks"}, opts.Details)
}

func TestResolve_VisionOperation(t *testing.T) {
	opts, err := Resolve(DefaultOptions(), map[string]any{"rekognitionType": "detect_text"})
	require.NoError(t, err)
	assert.Equal(t, VisionDetectText, opts.VisionOperation)

	opts, err = Resolve(DefaultOptions(), map[string]any{
		"rekognitionType": "DETECT_TEXT",
		"visionOperation": "DETECT_MODERATION_LABELS",
	})
	require.NoError(t, err)
	assert.Equal(t, VisionDetectModerationLabels, opts.VisionOperation)
}

func TestResolve_InvalidOptionNamesField(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		field string
	}{
		{"maxLabels string", map[string]any{"maxLabels": "not-a-number"}, "maxLabels"},
		{"maxLabels fraction", map[string]any{"maxLabels": 2.5}, "maxLabels"},
		{"maxLabels zero", map[string]any{"maxLabels": 0}, "maxLabels"},
		{"region type", map[string]any{"region": 7}, "region"},
		{"timeout garbage", map[string]any{"requestTimeout": "soon"}, "requestTimeout"},
		{"timeout negative", map[string]any{"connectionTimeout": -5}, "connectionTimeout"},
		{"vision unknown", map[string]any{"visionOperation": "DETECT_FACES"}, "visionOperation"},
		{"alias unknown", map[string]any{"rekognitionType": "NOPE"}, "rekognitionType"},
		{"confidence range", map[string]any{"minConfidence": 101}, "minConfidence"},
		{"features type", map[string]any{"visualFeatures": []any{1}}, "visualFeatures"},
		{"timeout overflow", map[string]any{"requestTimeout": 1e17}, "requestTimeout"},
		{"timeout overflow number", map[string]any{"requestTimeout": json.Number("100000000000000000")}, "requestTimeout"},
		{"maxLabels beyond int64", map[string]any{"maxLabels": 1e19}, "maxLabels"},
		{"maxLabels number beyond int64", map[string]any{"maxLabels": json.Number("99999999999999999999")}, "maxLabels"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(DefaultOptions(), tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidOption))

			var optErr *errors.OptionError
			require.True(t, errors.As(err, &optErr))
			assert.Equal(t, tt.field, optErr.Field)
		})
	}
}

func TestResolve_ReportsFirstInvalidFieldInKeyOrder(t *testing.T) {
	raw := map[string]any{
		"region":            7,
		"maxLabels":         "many",
		"connectionTimeout": "soon",
	}
	for i := 0; i < 20; i++ {
		_, err := Resolve(DefaultOptions(), raw)
		var optErr *errors.OptionError
		require.True(t, errors.As(err, &optErr))
		assert.Equal(t, "connectionTimeout", optErr.Field)
	}
}

func TestResolve_LargestTimeout(t *testing.T) {
	opts, err := Resolve(DefaultOptions(), map[string]any{"requestTimeout": maxDurationMillis})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(maxDurationMillis)*time.Millisecond, opts.RequestTimeout)
}

func TestResolve_DoesNotAliasDefaults(t *testing.T) {
	defaults := DefaultOptions()
	defaults.VisualFeatures = []string{"Categories"}

	opts, err := Resolve(defaults, nil)
	require.NoError(t, err)
	opts.VisualFeatures[0] = "Tags"

	assert.Equal(t, "Categories", defaults.VisualFeatures[0])
}

func TestParseCapability(t *testing.T) {
	c, err := ParseCapability("keyPhrases")
	require.NoError(t, err)
	assert.Equal(t, CapabilityKeyPhrases, c)
	assert.True(t, c.IsText())
	assert.False(t, CapabilityVision.IsText())

	_, err = ParseCapability("keyphrases")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

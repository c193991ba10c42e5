package testsupport

import (
	"os"
	"testing"
)

// AWSCredentials are live Comprehend/Rekognition credentials for integration tests.
type AWSCredentials struct {
	AccessKey string
	SecretKey string
	Region    string
}

// AzureCredentials are a live Cognitive Services endpoint and key.
type AzureCredentials struct {
	URL string
	Key string
}

// AWSFromEnv reads AWS credentials for integration tests.
// Tests are skipped when required environment variables are missing.
func AWSFromEnv(t *testing.T) AWSCredentials {
	t.Helper()
	requireEnv(t, "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY")

	return AWSCredentials{
		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Region:    valueWithDefault("AWS_REGION", "us-east-2"),
	}
}

// AzureTextFromEnv reads the Text Analytics endpoint for integration tests.
func AzureTextFromEnv(t *testing.T) AzureCredentials {
	t.Helper()
	requireEnv(t, "AZURE_TEXT_URL", "AZURE_TEXT_KEY")

	return AzureCredentials{
		URL: os.Getenv("AZURE_TEXT_URL"),
		Key: os.Getenv("AZURE_TEXT_KEY"),
	}
}

// AzureVisionFromEnv reads the Computer Vision endpoint for integration tests.
func AzureVisionFromEnv(t *testing.T) AzureCredentials {
	t.Helper()
	requireEnv(t, "AZURE_VISION_URL", "AZURE_VISION_KEY")

	return AzureCredentials{
		URL: os.Getenv("AZURE_VISION_URL"),
		Key: os.Getenv("AZURE_VISION_KEY"),
	}
}

// SampleImageURL returns a publicly reachable image for vision integration tests.
func SampleImageURL() string {
	return valueWithDefault("INSIGHT_TEST_IMAGE_URL",
		"https://upload.wikimedia.org/wikipedia/commons/3/3f/Fronalpstock_big.jpg")
}

func requireEnv(t *testing.T, keys ...string) {
	t.Helper()

	missing := make([]string, 0)
	for _, key := range keys {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		t.Skipf("integration environment missing, set %v to run", missing)
	}
}

func valueWithDefault(key string, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}

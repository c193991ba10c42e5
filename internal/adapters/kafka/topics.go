package kafka

// Topic definitions for Kafka event streaming
const (
	// TopicAnalysisCalls carries one diagnostics event per analysis call
	TopicAnalysisCalls = "analysis.calls"
)

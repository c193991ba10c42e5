package events

import (
	"context"
	"encoding/json"

	"google.golang.org/protobuf/proto"

	"insight/internal/adapters/kafka"
	"insight/pkg/errors"
	"insight/pkg/logger"
)

// Encodings supported for published events
const (
	EncodingJSON     = "json"
	EncodingProtobuf = "protobuf"
)

// Publisher emits call diagnostics events
type Publisher interface {
	PublishCallCompleted(ctx context.Context, event *CallCompleted) error
}

// Sender is the subset of the Kafka producer the publisher needs
type Sender interface {
	PublishBinary(ctx context.Context, topic string, key []byte, data []byte, headers ...kafka.Header) error
}

// KafkaPublisher publishes events to Kafka, keyed by call ID
type KafkaPublisher struct {
	sender   Sender
	topic    string
	encoding string
	log      *logger.Logger
}

// NewKafkaPublisher creates a new event publisher
func NewKafkaPublisher(sender Sender, topic, encoding string, log *logger.Logger) (*KafkaPublisher, error) {
	if topic == "" {
		topic = kafka.TopicAnalysisCalls
	}
	switch encoding {
	case "":
		encoding = EncodingJSON
	case EncodingJSON, EncodingProtobuf:
	default:
		return nil, errors.NewValidationError("encoding", "must be json or protobuf", encoding)
	}

	return &KafkaPublisher{
		sender:   sender,
		topic:    topic,
		encoding: encoding,
		log:      log.With("component", "event_publisher"),
	}, nil
}

// PublishCallCompleted publishes a call completed event
func (p *KafkaPublisher) PublishCallCompleted(ctx context.Context, event *CallCompleted) error {
	data, contentType, err := encode(event, p.encoding)
	if err != nil {
		return err
	}

	headers := []kafka.Header{
		{Key: "content-type", Value: contentType},
		{Key: "event-type", Value: event.Type},
	}
	if err := p.sender.PublishBinary(ctx, p.topic, []byte(event.CallID), data, headers...); err != nil {
		return errors.Wrap(err, "send to kafka")
	}

	p.log.Debugw("Event published",
		"topic", p.topic,
		"call_id", event.CallID,
		"size_bytes", len(data),
	)
	return nil
}

func encode(event *CallCompleted, encoding string) ([]byte, string, error) {
	if encoding == EncodingProtobuf {
		s, err := event.toStruct()
		if err != nil {
			return nil, "", errors.Wrap(err, "build protobuf struct")
		}
		data, err := proto.Marshal(s)
		if err != nil {
			return nil, "", errors.Wrap(err, "marshal protobuf")
		}
		return data, "application/x-protobuf", nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, "", errors.Wrap(err, "marshal json")
	}
	return data, "application/json", nil
}

// NoopPublisher drops events. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishCallCompleted(ctx context.Context, event *CallCompleted) error {
	return nil
}

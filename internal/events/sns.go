// internal/events/sns.go
package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"mortgage-api/internal/common/logger"
	"mortgage-api/internal/common/metrics"
	"mortgage-api/internal/models"
	"mortgage-api/pkg/registry"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the slice of the SNS client the publisher needs.
type SNSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher serializes envelopes and ships them to an SNS topic, with an
// optional audit sink receiving a copy of every envelope. Delivery runs on a
// detached goroutine with its own deadline so request latency never includes
// the broker round trip.
type SNSPublisher struct {
	sns      SNSAPI
	topicARN string
	topic    string
	registry *registry.Registry
	audit    *AuditSink
	timeout  time.Duration
	logger   logger.Logger
}

func NewSNSPublisher(api SNSAPI, topicARN, topic string, reg *registry.Registry, audit *AuditSink, timeout time.Duration, log logger.Logger) *SNSPublisher {
	return &SNSPublisher{
		sns:      api,
		topicARN: topicARN,
		topic:    topic,
		registry: reg,
		audit:    audit,
		timeout:  timeout,
		logger:   log.WithFields(map[string]interface{}{"component": "event-publisher"}),
	}
}

// Publish wraps the payload in an envelope and dispatches it asynchronously.
// Serialization and schema failures are dropped here; transport failures are
// dropped inside deliver. Neither reaches the caller.
func (p *SNSPublisher) Publish(_ context.Context, kind models.EventKind, key string, payload interface{}) {
	envelope := models.NewEventEnvelope(kind, payload)

	body, err := json.Marshal(envelope)
	if err != nil {
		metrics.EventsDropped.WithLabelValues(string(kind), "marshal").Inc()
		p.logger.WithError(err).Error("event envelope marshal failed", map[string]interface{}{
			"kind": string(kind),
			"key":  key,
		})
		return
	}

	if err := p.registry.Validate(string(kind), body); err != nil {
		metrics.EventsDropped.WithLabelValues(string(kind), "schema").Inc()
		p.logger.WithError(err).Error("event envelope rejected by schema", map[string]interface{}{
			"kind": string(kind),
			"key":  key,
		})
		return
	}

	metrics.EventsPublished.WithLabelValues(string(kind)).Inc()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.deliver(ctx, kind, key, envelope.TraceID, body)
	}()
}

func (p *SNSPublisher) deliver(ctx context.Context, kind models.EventKind, key, traceID string, body []byte) {
	input := &sns.PublishInput{
		TopicArn: awssdk.String(p.topicARN),
		Message:  awssdk.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(string(kind)),
			},
			"topic": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(p.topic),
			},
		},
	}
	// FIFO topics demand ordering metadata; the record id keeps per-record order.
	if strings.HasSuffix(p.topicARN, ".fifo") {
		input.MessageGroupId = awssdk.String(key)
		input.MessageDeduplicationId = awssdk.String(traceID)
	}

	if _, err := p.sns.Publish(ctx, input); err != nil {
		metrics.EventsDropped.WithLabelValues(string(kind), "transport").Inc()
		p.logger.WithError(err).Error("event publish failed", map[string]interface{}{
			"kind":    string(kind),
			"key":     key,
			"traceId": traceID,
		})
	} else {
		p.logger.Debug("event published", map[string]interface{}{
			"kind":    string(kind),
			"key":     key,
			"traceId": traceID,
		})
	}

	if p.audit != nil {
		p.audit.Index(ctx, traceID, body)
	}
}

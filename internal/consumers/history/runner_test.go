package history

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/enums"
	"github.com/stocklane/stocklane-backend/pkg/logger"
	"github.com/stocklane/stocklane-backend/pkg/outbox"
)

type fakeProcessor struct {
	calls []enums.OutboxEventType
	err   error
}

func (f *fakeProcessor) Process(_ context.Context, eventType enums.OutboxEventType, _ outbox.PayloadEnvelope) error {
	f.calls = append(f.calls, eventType)
	return f.err
}

func testRunner(processor *fakeProcessor) *Runner {
	return &Runner{
		processor: processor,
		logg: logger.New(logger.Options{
			ServiceName: "history-runner-test",
			Level:       logger.ParseLevel("debug"),
			Output:      io.Discard,
		}),
	}
}

func domainMessage(t *testing.T, eventType string, envelope outbox.PayloadEnvelope) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		ID:   "msg-1",
		Data: data,
		Attributes: map[string]string{
			"event_type": eventType,
			"event_id":   envelope.EventID,
			"created_at": time.Now().Format(time.RFC3339Nano),
		},
	}
}

func TestRunnerAcksProcessedEvent(t *testing.T) {
	processor := &fakeProcessor{}
	runner := testRunner(processor)

	envelope := buildEnvelope(t, uuid.New(), map[string]any{"kind": "inbound"})
	msg := domainMessage(t, string(enums.EventMovementRecorded), envelope)

	result := runner.process(context.Background(), msg)
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(processor.calls) != 1 || processor.calls[0] != enums.EventMovementRecorded {
		t.Fatalf("unexpected processor calls: %v", processor.calls)
	}
}

func TestRunnerAcksUnknownEventType(t *testing.T) {
	processor := &fakeProcessor{}
	runner := testRunner(processor)

	envelope := buildEnvelope(t, uuid.New(), map[string]any{})
	msg := domainMessage(t, "order_shipped", envelope)

	result := runner.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("unknown event types should ack, got %+v", result)
	}
	if len(processor.calls) != 0 {
		t.Fatalf("processor should not be called for unknown event types")
	}
}

func TestRunnerAcksMalformedEnvelope(t *testing.T) {
	processor := &fakeProcessor{}
	runner := testRunner(processor)

	msg := &pubsub.Message{
		ID:         "msg-2",
		Data:       []byte("not-json"),
		Attributes: map[string]string{"event_type": string(enums.EventAlertRaised)},
	}

	result := runner.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("malformed envelopes should ack, got %+v", result)
	}
	if len(processor.calls) != 0 {
		t.Fatalf("processor should not see malformed envelopes")
	}
}

func TestRunnerNacksProcessingFailure(t *testing.T) {
	processor := &fakeProcessor{err: errors.New("bigquery unavailable")}
	runner := testRunner(processor)

	envelope := buildEnvelope(t, uuid.New(), map[string]any{"kind": "outbound"})
	msg := domainMessage(t, string(enums.EventMovementRecorded), envelope)

	result := runner.process(context.Background(), msg)
	if !result.nack {
		t.Fatalf("processing failures should nack, got %+v", result)
	}
}

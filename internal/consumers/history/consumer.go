package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/stocklane/stocklane-backend/pkg/enums"
	"github.com/stocklane/stocklane-backend/pkg/logger"
	"github.com/stocklane/stocklane-backend/pkg/outbox"
	"github.com/stocklane/stocklane-backend/pkg/outbox/payloads"
	"github.com/stocklane/stocklane-backend/pkg/outbox/registry"
)

const historyConsumerName = "stock-history"

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer streams stock domain events into BigQuery for long-term reporting,
// honoring Redis idempotency so a redelivered event is ingested once.
type Consumer struct {
	client      tableInserter
	table       string
	manager     idempotencyChecker
	logg        *logger.Logger
	decoders    *registry.DecoderRegistry
	eventFilter map[enums.OutboxEventType]struct{}
}

// NewConsumer builds a stock history consumer.
func NewConsumer(client tableInserter, table string, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("bigquery table name required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		client:   client,
		table:    strings.TrimSpace(table),
		manager:  manager,
		logg:     logg,
		decoders: registry.NewDomainDecoderRegistry(),
		eventFilter: map[enums.OutboxEventType]struct{}{
			enums.EventMovementRecorded: {},
			enums.EventAlertRaised:      {},
			enums.EventAlertResolved:    {},
		},
	}, nil
}

// Process ingests the outbox envelope into BigQuery if the event is supported.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if _, ok := c.eventFilter[eventType]; !ok {
		c.logg.Info(logCtx, "event not handled by history consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, historyConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	row, err := c.buildRow(eventType, envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to build stock event row", err)
		_ = c.manager.Delete(ctx, historyConsumerName, eventID)
		return err
	}

	if err := c.client.InsertRows(ctx, c.table, []any{row}); err != nil {
		c.logg.Error(logCtx, "failed to insert stock event row", err)
		_ = c.manager.Delete(ctx, historyConsumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "stock event ingested")
	return nil
}

type stockEventRow struct {
	EventID        string             `bigquery:"event_id"`
	EventType      string             `bigquery:"event_type"`
	OccurredAt     time.Time          `bigquery:"occurred_at"`
	OrgID          *string            `bigquery:"org_id"`
	ProductID      *string            `bigquery:"product_id"`
	FromLocationID *string            `bigquery:"from_location_id"`
	ToLocationID   *string            `bigquery:"to_location_id"`
	LocationID     *string            `bigquery:"location_id"`
	MovementKind   *string            `bigquery:"movement_kind"`
	AlertType      *string            `bigquery:"alert_type"`
	Quantity       *int64             `bigquery:"quantity"`
	Payload        cbigquery.NullJSON `bigquery:"payload"`
}

// buildRow decodes the envelope through the typed payload registry and maps
// the fields the reporting table flattens out. The full payload ships as JSON
// alongside them.
func (c *Consumer) buildRow(eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) (*stockEventRow, error) {
	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	row := &stockEventRow{
		EventID:    envelope.EventID,
		EventType:  string(eventType),
		OccurredAt: envelope.OccurredAt,
	}
	if len(envelope.Data) > 0 {
		row.Payload = cbigquery.NullJSON{Valid: true, JSONVal: string(envelope.Data)}
	}

	switch payload := decoded.(type) {
	case *payloads.MovementRecordedEvent:
		row.OrgID = uuidColumn(payload.OrgID)
		row.ProductID = uuidColumn(payload.ProductID)
		row.FromLocationID = uuidPtrColumn(payload.FromLocationID)
		row.ToLocationID = uuidPtrColumn(payload.ToLocationID)
		row.MovementKind = stringColumn(string(payload.Kind))
		row.Quantity = &payload.Quantity
	case *payloads.AlertRaisedEvent:
		row.OrgID = uuidColumn(payload.OrgID)
		row.ProductID = uuidColumn(payload.ProductID)
		row.LocationID = uuidColumn(payload.LocationID)
		row.AlertType = stringColumn(string(payload.Type))
		row.Quantity = &payload.Quantity
	case *payloads.AlertResolvedEvent:
		row.OrgID = uuidColumn(payload.OrgID)
		row.ProductID = uuidColumn(payload.ProductID)
		row.LocationID = uuidColumn(payload.LocationID)
		row.AlertType = stringColumn(string(payload.Type))
		row.Quantity = &payload.Quantity
	default:
		return nil, fmt.Errorf("unexpected payload type %T for %s", decoded, eventType)
	}
	return row, nil
}

func uuidColumn(id uuid.UUID) *string {
	if id == uuid.Nil {
		return nil
	}
	str := id.String()
	return &str
}

func uuidPtrColumn(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	return uuidColumn(*id)
}

func stringColumn(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

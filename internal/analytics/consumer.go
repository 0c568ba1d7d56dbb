package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/mathmindlabs/mathmind-backend/pkg/enums"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
	"github.com/mathmindlabs/mathmind-backend/pkg/outbox"
	"github.com/mathmindlabs/mathmind-backend/pkg/outbox/payloads"
)

// UsageRow is one calculation usage record sunk into BigQuery. The
// event id doubles as the insert id so redelivered messages dedupe on
// the BigQuery side.
type UsageRow struct {
	EventID       string
	CalculationID string
	UserID        int64
	Type          string
	Input         string
	SavedAt       time.Time
	OccurredAt    time.Time
}

// Save implements bigquery.ValueSaver.
func (r UsageRow) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"event_id":       r.EventID,
		"calculation_id": r.CalculationID,
		"user_id":        r.UserID,
		"type":           r.Type,
		"input":          r.Input,
		"saved_at":       r.SavedAt,
		"occurred_at":    r.OccurredAt,
	}, r.EventID, nil
}

type rowSink interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// Consumer sinks calculation.saved events into the usage table.
type Consumer struct {
	sink         rowSink
	table        string
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer builds the usage analytics consumer.
func NewConsumer(sink rowSink, table string, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if sink == nil {
		return nil, fmt.Errorf("row sink required")
	}
	if table == "" {
		return nil, fmt.Errorf("usage table required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("analytics subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		sink:         sink,
		table:        table,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != string(enums.EventCalculationSaved) {
		c.logg.Info(logCtx, "skipping non-usage event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	var payload payloads.CalculationSavedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	if payload.CalculationID == "" {
		c.logg.Info(logCtx, "usage event without calculation id, skipping")
		return processResult{ack: true}
	}

	row := UsageRow{
		EventID:       envelope.EventID,
		CalculationID: payload.CalculationID,
		UserID:        payload.UserID,
		Type:          payload.Type,
		Input:         payload.Input,
		SavedAt:       payload.SavedAt,
		OccurredAt:    envelope.OccurredAt,
	}
	if err := c.sink.InsertRows(ctx, c.table, []any{row}); err != nil {
		c.logg.Error(logCtx, "usage row insert failed", err)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithField(logCtx, "calculation_id", payload.CalculationID)
	c.logg.Info(logCtx, "usage row recorded")
	return processResult{ack: true}
}

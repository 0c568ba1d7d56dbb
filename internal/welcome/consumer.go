package welcome

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/mathmindlabs/mathmind-backend/pkg/enums"
	"github.com/mathmindlabs/mathmind-backend/pkg/logger"
	"github.com/mathmindlabs/mathmind-backend/pkg/mailer"
	"github.com/mathmindlabs/mathmind-backend/pkg/outbox"
	"github.com/mathmindlabs/mathmind-backend/pkg/outbox/payloads"
)

const welcomeSubject = "Welcome to MathMind"

// Consumer turns user.registered events into welcome emails.
type Consumer struct {
	mailer       mailer.Sender
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer builds the welcome email consumer.
func NewConsumer(sender mailer.Sender, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("email subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		mailer:       sender,
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

	if eventType != string(enums.EventUserRegistered) {
		c.logg.Info(logCtx, "skipping non-registration event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	var payload payloads.UserRegisteredEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	if payload.Email == "" {
		c.logg.Info(logCtx, "registration event without email, skipping")
		return processResult{ack: true}
	}

	logCtx = c.logg.WithField(logCtx, "user_id", payload.UserID)
	if err := c.mailer.Send(ctx, buildWelcomeMessage(payload)); err != nil {
		c.logg.Error(logCtx, "welcome email delivery failed", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "welcome email sent")
	return processResult{ack: true}
}

func buildWelcomeMessage(payload payloads.UserRegisteredEvent) mailer.Message {
	name := payload.Name
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf(
		"Hi %s,\n\nWelcome to MathMind! Your account is ready. Open the app and start solving.\n\nThe MathMind Team",
		name,
	)
	return mailer.Message{
		ToEmail: payload.Email,
		ToName:  payload.Name,
		Subject: welcomeSubject,
		Body:    body,
	}
}

package services

import (
	"context"
	"log/slog"

	"platito/internal/amqp"
	"platito/internal/log"
)

// EventPublisher receives a notification after every committed change.
// *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.LedgerEvent) error
}

type notifier struct {
	events EventPublisher
}

// notify never fails the write that triggered it.
func (n notifier) notify(ctx context.Context, entity amqp.Entity, action amqp.Action, id int64) {
	if n.events == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping ledger event",
			log.FieldEntity, entity, "action", action, log.FieldID, id)
		return
	}
	if err := n.events.Publish(ctx, amqp.NewLedgerEvent(entity, action, id)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldComponent, log.ComponentAMQP,
			log.FieldEntity, entity, "action", action, log.FieldID, id, log.FieldError, err)
	}
}

package service

import (
	"context"

	"sparklink-ai-be/internal/pkg/logger"
	"sparklink-ai-be/pkg/events"

	pktNats "sparklink-ai-be/pkg/nats"
)

type IEventAuditService interface {
	Start() error
}

// eventAuditService drains the system event bus into the structured log
// so lifecycle events remain inspectable across instances.
type eventAuditService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewEventAuditService(subscriber *pktNats.Subscriber, log logger.ILogger) IEventAuditService {
	return &eventAuditService{
		subscriber: subscriber,
		logger:     log,
	}
}

func (s *eventAuditService) Start() error {
	return s.subscriber.Subscribe("events.>", "system-event-audit", func(ctx context.Context, event events.Event) error {
		s.logger.Info("EventAudit", event.EventType(), map[string]interface{}{
			"payload":     event.Payload(),
			"occurred_at": event.Timestamp(),
		})
		return nil
	})
}

// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"log"

	"sparklink-ai-be/internal/dto"
	"sparklink-ai-be/internal/entity"
	"sparklink-ai-be/internal/repository/specification"
	"sparklink-ai-be/internal/repository/unitofwork"
	"sparklink-ai-be/pkg/events"
	"sparklink-ai-be/pkg/ingest"
	pktNats "sparklink-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	pipeline       *ingest.Pipeline
	eventPublisher *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	pipeline *ingest.Pipeline,
	eventPublisher *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		pipeline:       pipeline,
		eventPublisher: eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing document ingestion for DocId: %s", payload.DocId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.KbDocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if doc == nil {
		log.Printf("[ERROR] Document not found: %s", payload.DocId)
		msg.Ack() // Document deleted? Ack.
		return
	}

	job := ingest.Job{
		DocId:      doc.Id,
		UserId:     doc.UserId,
		GroupId:    doc.GroupId,
		Name:       doc.Name,
		DocType:    doc.DocType,
		Content:    doc.InlineContent,
		SourcePath: doc.SourcePath,
	}

	result, err := cs.pipeline.Run(ctx, job)
	if err != nil {
		// The pipeline already marked the document failed; re-running the
		// same input would fail the same way, so the message is done.
		log.Printf("[ERROR] Ingestion failed for document %s: %v", doc.Id, err)
		cs.publishEvent(ctx, events.TypeDocumentFailed, doc, map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack()
		return
	}

	log.Printf("[SUCCESS] Document ingested: %d/%d chunks for DocId: %s",
		result.ProcessedChunks, result.TotalChunks, doc.Id)
	cs.publishEvent(ctx, events.TypeDocumentIngested, doc, map[string]interface{}{
		"total_chunks":     result.TotalChunks,
		"processed_chunks": result.ProcessedChunks,
		"failed_chunks":    result.FailedChunks,
	})
	msg.Ack()
}

func (cs *consumerService) publishEvent(ctx context.Context, eventType string, doc *entity.KbDocument, extra map[string]interface{}) {
	if cs.eventPublisher == nil {
		return
	}
	data := map[string]interface{}{
		"doc_id":  doc.Id.String(),
		"user_id": doc.UserId.String(),
		"name":    doc.Name,
	}
	for k, v := range extra {
		data[k] = v
	}
	if err := cs.eventPublisher.Publish(ctx, events.New(eventType, data)); err != nil {
		log.Printf("[WARN] Failed to publish %s event: %v", eventType, err)
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"plant-doctor-be/internal/dto"
	"plant-doctor-be/internal/entity"
	"plant-doctor-be/internal/pkg/logger"
	"plant-doctor-be/internal/repository/specification"
	"plant-doctor-be/internal/repository/unitofwork"
	"plant-doctor-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// errMalformedResult marks messages that can never be stored.
var errMalformedResult = errors.New("malformed diagnosis result")

// EventPublisher announces events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	events     EventPublisher
	logger     logger.ILogger
}

// NewConsumerService stores finished diagnoses. events may be nil when no
// bus is available.
func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	events EventPublisher,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		events:     events,
		logger:     logger,
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
	err := cs.store(ctx, msg.Payload)
	switch {
	case err == nil:
		msg.Ack()
	case errors.Is(err, errMalformedResult):
		cs.logger.Error("CONSUMER", "Dropping diagnosis result", map[string]interface{}{"message_id": msg.UUID, "error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
	default:
		cs.logger.Error("CONSUMER", "Failed to store diagnosis result", map[string]interface{}{"message_id": msg.UUID, "error": err.Error()})
		msg.Nack()
	}
}

// store persists one result. A session that is already stored is skipped, so
// redelivery is harmless.
func (cs *consumerService) store(ctx context.Context, payload []byte) error {
	var published dto.PublishDiagnosisResultMessage
	if err := json.Unmarshal(payload, &published); err != nil {
		return fmt.Errorf("%w: %v", errMalformedResult, err)
	}
	result := published.Result

	sessionID, err := uuid.Parse(result.SessionID)
	if err != nil {
		return fmt.Errorf("%w: session id %q", errMalformedResult, result.SessionID)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedResult, err)
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.DiagnosisRecordRepository().FindOne(ctx, specification.BySession{SessionID: sessionID})
	if err != nil {
		return err
	}
	if existing != nil {
		cs.logger.Info("CONSUMER", "Diagnosis already stored", map[string]interface{}{"session_id": sessionID.String()})
		return nil
	}

	record := &entity.DiagnosisRecord{
		UserId:       published.UserId,
		SessionId:    sessionID,
		ImageUrl:     result.ImageURL,
		DiseaseNames: result.DiseaseNames(),
		Severity:     string(result.Severity),
		Healthy:      result.Healthy,
		Result:       raw,
	}
	if result.Plant != nil {
		record.PlantName = result.Plant.CommonName
	}

	if err := uow.DiagnosisRecordRepository().Create(ctx, record); err != nil {
		return err
	}
	cs.logger.Info("CONSUMER", "Diagnosis stored", map[string]interface{}{
		"session_id": sessionID.String(),
		"record_id":  record.Id.String(),
	})

	cs.announce(ctx, record)
	return nil
}

func (cs *consumerService) announce(ctx context.Context, record *entity.DiagnosisRecord) {
	if cs.events == nil {
		return
	}

	completed := events.CompletedDiagnosis{
		RecordID:     record.Id.String(),
		SessionID:    record.SessionId.String(),
		PlantName:    record.PlantName,
		DiseaseNames: record.DiseaseNames,
		Severity:     record.Severity,
		Healthy:      record.Healthy,
	}
	if record.UserId != nil {
		completed.UserID = record.UserId.String()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := cs.events.Publish(ctx, events.NewDiagnosisCompleted(completed, time.Now())); err != nil {
		cs.logger.Warn("CONSUMER", "Failed to publish completion event", map[string]interface{}{
			"session_id": completed.SessionID,
			"error":      err.Error(),
		})
	}
}

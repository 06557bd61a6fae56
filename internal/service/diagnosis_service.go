package service

import (
	"context"

	"plant-doctor-be/internal/dto"
	"plant-doctor-be/internal/pkg/logger"
	"plant-doctor-be/pkg/diagnosis"

	"github.com/google/uuid"
)

// DiagnosisRunner runs one streamed diagnosis.
type DiagnosisRunner interface {
	Run(ctx context.Context, imageRef string, sink diagnosis.Sink) (*diagnosis.ConsolidatedResult, error)
}

type IDiagnosisService interface {
	// Stream runs a diagnosis, sending its events to sink, and hands a
	// completed result over for storage.
	Stream(ctx context.Context, userId *uuid.UUID, imageURL string, sink diagnosis.Sink) error
}

type diagnosisService struct {
	runner    DiagnosisRunner
	publisher IPublisherService
	logger    logger.ILogger
}

func NewDiagnosisService(runner DiagnosisRunner, publisher IPublisherService, logger logger.ILogger) IDiagnosisService {
	return &diagnosisService{
		runner:    runner,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *diagnosisService) Stream(ctx context.Context, userId *uuid.UUID, imageURL string, sink diagnosis.Sink) error {
	result, err := s.runner.Run(ctx, imageURL, sink)
	if result == nil {
		return err
	}

	// The client may leave right after complete; storing must not depend on it.
	msg := dto.PublishDiagnosisResultMessage{UserId: userId, Result: *result}
	if pubErr := s.publisher.SendMessage(context.WithoutCancel(ctx), msg); pubErr != nil {
		s.logger.Error("DIAGNOSIS", "Failed to hand off result", map[string]interface{}{
			"session_id": result.SessionID,
			"error":      pubErr.Error(),
		})
	}
	return err
}

package service

import (
	"context"
	"encoding/json"

	wmessage "github.com/ThreeDotsLabs/watermill/message"

	"requirements-intake-be/internal/dto"
	"requirements-intake-be/internal/pkg/logger"
	"requirements-intake-be/internal/repository/memory"
)

// IGenerationService consumes completion events and chains the SRS
// generation contract. Every failure here is swallowed after logging: the
// primary submission already succeeded and must stay that way.
type IGenerationService interface {
	Consume(ctx context.Context) error
}

// Subscriber is the message source. Satisfied by gochannel.GoChannel.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *wmessage.Message, error)
}

type generationService struct {
	subscriber Subscriber
	topicName  string
	sessions   *memory.SessionRepository
	client     ProcessingClient
	logger     logger.ILogger
}

func NewGenerationService(
	subscriber Subscriber,
	topicName string,
	sessions *memory.SessionRepository,
	client ProcessingClient,
	log logger.ILogger,
) IGenerationService {
	return &generationService{
		subscriber: subscriber,
		topicName:  topicName,
		sessions:   sessions,
		client:     client,
		logger:     log,
	}
}

func (gs *generationService) Consume(ctx context.Context) error {
	messages, err := gs.subscriber.Subscribe(ctx, gs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			gs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (gs *generationService) processMessage(ctx context.Context, msg *wmessage.Message) {
	// No retries in this chain: every outcome acks so a poisoned or failed
	// event can never loop back around.
	defer msg.Ack()

	var payload dto.SubmissionCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		gs.logger.Error("generation", "Failed to unmarshal completion event", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	session, ok := gs.sessions.Get(payload.SessionId)
	if !ok {
		gs.logger.Warn("generation", "Session expired before SRS generation", map[string]interface{}{
			"session_id": payload.SessionId,
		})
		return
	}

	session.Lock()
	result := session.LastResult
	info := toProcessingInfo(session.ProjectInfo)
	session.Unlock()

	if result == nil {
		gs.logger.Warn("generation", "Completion event without a stored result", map[string]interface{}{
			"session_id": payload.SessionId,
		})
		return
	}

	doc, err := gs.client.GenerateSRS(ctx, result.ResultsList(), info)
	if err != nil {
		// Isolated failure domain: logged, never surfaced as a submission
		// failure.
		gs.logger.Warn("generation", "SRS generation failed", map[string]interface{}{
			"session_id": payload.SessionId,
			"error":      err.Error(),
		})
		return
	}

	session.Lock()
	session.LastDocument = doc
	session.Unlock()

	gs.logger.Info("generation", "SRS document generated", map[string]interface{}{
		"session_id": payload.SessionId,
	})
}

package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	wmessage "github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"requirements-intake-be/internal/dto"
	"requirements-intake-be/internal/entity"
	"requirements-intake-be/internal/pkg/logger"
	"requirements-intake-be/internal/repository/memory"
	"requirements-intake-be/pkg/processing"
	"requirements-intake-be/pkg/textrules"
)

// ProcessingClient is the slice of the remote API the orchestrator needs.
// *processing.Client satisfies it; tests substitute fakes.
type ProcessingClient interface {
	ProcessText(ctx context.Context, content string, info processing.ProjectInfo) (processing.Result, error)
	ProcessAudio(ctx context.Context, clip []byte, info processing.ProjectInfo) (processing.Result, error)
	ProcessFiles(ctx context.Context, files []processing.UploadFile, info processing.ProjectInfo) (processing.Result, error)
	GenerateSRS(ctx context.Context, results []any, info processing.ProjectInfo) (processing.Document, error)
}

type ISubmissionService interface {
	Submit(ctx context.Context, sessionId uuid.UUID) (*dto.SubmitResponse, error)
}

// Publisher is the completion-event sink. Satisfied by gochannel.GoChannel.
type Publisher interface {
	Publish(topic string, messages ...*wmessage.Message) error
}

type submissionService struct {
	sessions  *memory.SessionRepository
	client    ProcessingClient
	publisher Publisher
	topicName string
	policy    textrules.Policy
	logger    logger.ILogger
}

func NewSubmissionService(
	sessions *memory.SessionRepository,
	client ProcessingClient,
	publisher Publisher,
	topicName string,
	policy textrules.Policy,
	log logger.ILogger,
) ISubmissionService {
	return &submissionService{
		sessions:  sessions,
		client:    client,
		publisher: publisher,
		topicName: topicName,
		policy:    policy,
		logger:    log,
	}
}

// Submit runs one submission attempt end to end. Exactly one request shape
// goes out, picked by modality priority: validated text, then a captured
// clip, then staged files. Local failures (no input, validation) never touch
// the network; remote failures come back normalized as data. The
// re-entrancy guard is set before the remote call and cleared on every exit
// path.
func (s *submissionService) Submit(ctx context.Context, sessionId uuid.UUID) (*dto.SubmitResponse, error) {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}

	if !session.BeginSubmit() {
		return nil, ErrSubmissionInFlight
	}
	defer session.EndSubmit()

	// Snapshot the staged payload so the remote call runs without holding
	// the session lock.
	session.Lock()
	text := session.Text.Content
	clip := session.Recording.Clip
	files := make([]*entity.StagedFile, len(session.StagedFiles))
	copy(files, session.StagedFiles)
	info := toProcessingInfo(session.ProjectInfo)
	session.Unlock()

	var result processing.Result
	var err error

	switch {
	case strings.TrimSpace(text) != "":
		if violations := textrules.Validate(s.policy, text); len(violations) > 0 {
			return nil, &ValidationError{Violations: violations}
		}
		result, err = s.client.ProcessText(ctx, text, info)

	case clip != nil:
		result, err = s.client.ProcessAudio(ctx, clip.Data, info)

	case len(files) > 0:
		uploads := make([]processing.UploadFile, 0, len(files))
		for _, f := range files {
			uploads = append(uploads, processing.UploadFile{
				Filename:    f.Filename,
				ContentType: f.ContentType,
				Data:        f.Data,
			})
		}
		result, err = s.client.ProcessFiles(ctx, uploads, info)

	default:
		return nil, ErrNoInput
	}

	if err != nil {
		normalized := processing.Normalize(err)
		session.Lock()
		session.LastError = normalized
		session.Unlock()

		s.logger.Warn("submission", "Processing request failed", map[string]interface{}{
			"session_id": sessionId,
			"headline":   normalized.Headline,
			"details":    len(normalized.Details),
		})
		return &dto.SubmitResponse{Status: "failed", Error: normalized}, nil
	}

	session.Lock()
	session.LastResult = result
	session.LastError = nil
	session.Unlock()

	s.logger.Info("submission", "Processing completed", map[string]interface{}{
		"session_id": sessionId,
		"status":     result.Status(),
	})

	// SRS generation is best effort and runs in its own failure domain: a
	// publish failure is logged, never reported as a submission failure.
	if result.Status() == processing.StatusCompleted {
		s.publishCompleted(sessionId)
	}

	return &dto.SubmitResponse{Status: result.Status(), Result: result}, nil
}

func (s *submissionService) publishCompleted(sessionId uuid.UUID) {
	payload, err := json.Marshal(dto.SubmissionCompletedMessage{SessionId: sessionId})
	if err != nil {
		s.logger.Error("submission", "Failed to encode completion event", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return
	}

	msg := wmessage.NewMessage(watermill.NewUUID(), payload)
	if err := s.publisher.Publish(s.topicName, msg); err != nil {
		s.logger.Error("submission", "Failed to publish completion event", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
}

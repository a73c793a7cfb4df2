package service

import (
	"time"

	"github.com/google/uuid"

	"requirements-intake-be/internal/dto"
	"requirements-intake-be/internal/entity"
	"requirements-intake-be/internal/pkg/logger"
	"requirements-intake-be/internal/repository/memory"
)

// IncomingFile is one upload handed to the staging queue. Acceptance
// filtering by extension or MIME category is the client's concern; the queue
// stages whatever arrives.
type IncomingFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type IStagingService interface {
	Add(sessionId uuid.UUID, files []IncomingFile) (*dto.AddFilesResponse, error)
	Remove(sessionId uuid.UUID, fileId uuid.UUID) error
}

type stagingService struct {
	sessions *memory.SessionRepository
	logger   logger.ILogger
}

func NewStagingService(sessions *memory.SessionRepository, log logger.ILogger) IStagingService {
	return &stagingService{
		sessions: sessions,
		logger:   log,
	}
}

// Add appends each file as a new staged entry with a fresh id, preserving
// arrival order. No deduplication: two uploads of the same filename are two
// distinct entries.
func (s *stagingService) Add(sessionId uuid.UUID, files []IncomingFile) (*dto.AddFilesResponse, error) {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	added := make([]dto.StagedFileInfo, 0, len(files))
	for _, in := range files {
		staged := &entity.StagedFile{
			Id:          uuid.New(),
			Filename:    in.Filename,
			ContentType: in.ContentType,
			Data:        in.Data,
			Status:      entity.FileStatusPending,
			AddedAt:     time.Now(),
		}
		session.StagedFiles = append(session.StagedFiles, staged)
		added = append(added, stagedFileInfo(staged))
	}

	s.logger.Info("staging", "Files staged", map[string]interface{}{
		"session_id": sessionId,
		"count":      len(added),
	})
	return &dto.AddFilesResponse{Files: added}, nil
}

// Remove drops the entry with the given id. Removing an id that is not
// staged is a no-op.
func (s *stagingService) Remove(sessionId uuid.UUID, fileId uuid.UUID) error {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	for i, f := range session.StagedFiles {
		if f.Id == fileId {
			session.StagedFiles = append(session.StagedFiles[:i], session.StagedFiles[i+1:]...)
			break
		}
	}
	return nil
}

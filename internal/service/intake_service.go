package service

import (
	"fmt"

	"github.com/google/uuid"

	"requirements-intake-be/internal/dto"
	"requirements-intake-be/internal/entity"
	"requirements-intake-be/internal/repository/memory"
	"requirements-intake-be/pkg/processing"
	"requirements-intake-be/pkg/textrules"
)

type IIntakeService interface {
	CreateSession(req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	Show(sessionId uuid.UUID) (*dto.SessionResponse, error)
	SetProjectInfo(sessionId uuid.UUID, req *dto.UpdateProjectInfoRequest) error
	SetMode(sessionId uuid.UUID, req *dto.UpdateModeRequest) error
	SetText(sessionId uuid.UUID, req *dto.UpdateTextRequest) (*dto.TextValidationResponse, error)
	DeleteSession(sessionId uuid.UUID) error
}

type intakeService struct {
	sessions *memory.SessionRepository
	policy   textrules.Policy
}

func NewIntakeService(sessions *memory.SessionRepository, policy textrules.Policy) IIntakeService {
	return &intakeService{
		sessions: sessions,
		policy:   policy,
	}
}

func (s *intakeService) CreateSession(req *dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	session := entity.NewIntakeSession(entity.ProjectInfo{
		Title:   req.Title,
		Author:  req.Author,
		Version: req.Version,
	})
	s.sessions.Save(session)

	return &dto.CreateSessionResponse{Id: session.Id}, nil
}

func (s *intakeService) Show(sessionId uuid.UUID) (*dto.SessionResponse, error) {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	files := make([]dto.StagedFileInfo, 0, len(session.StagedFiles))
	for _, f := range session.StagedFiles {
		files = append(files, stagedFileInfo(f))
	}

	rec := dto.RecordingInfo{
		State:       string(session.Recording.State),
		Duration:    FormatDuration(session.Recording.DurationSec),
		DurationSec: session.Recording.DurationSec,
		HasClip:     session.Recording.Clip != nil,
	}
	if session.Recording.Clip != nil {
		token := session.Recording.Clip.PlaybackToken
		rec.PlaybackToken = &token
	}

	return &dto.SessionResponse{
		Id:   session.Id,
		Mode: string(session.Mode),
		ProjectInfo: dto.ProjectInfoResponse{
			Title:   session.ProjectInfo.Title,
			Author:  session.ProjectInfo.Author,
			Version: session.ProjectInfo.Version,
		},
		Text: dto.TextValidationResponse{
			Valid:      session.Text.Valid(),
			Violations: violationsOrEmpty(session.Text.Violations),
		},
		TextContent: session.Text.Content,
		Recording:   rec,
		Files:       files,
		Processing:  session.SubmissionInFlight(),
		LastResult:  session.LastResult,
		Document:    session.LastDocument,
		LastError:   session.LastError,
	}, nil
}

func (s *intakeService) SetProjectInfo(sessionId uuid.UUID, req *dto.UpdateProjectInfoRequest) error {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	session.ProjectInfo = entity.ProjectInfo{
		Title:   req.Title,
		Author:  req.Author,
		Version: req.Version,
	}
	if session.ProjectInfo.Version == "" {
		session.ProjectInfo.Version = entity.DefaultProjectVersion
	}
	return nil
}

// SetMode switches the active modality. Staged data of the other modalities
// stays untouched: a captured clip and staged files survive a trip through
// the text tab.
func (s *intakeService) SetMode(sessionId uuid.UUID, req *dto.UpdateModeRequest) error {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	session.Mode = entity.InputMode(req.Mode)
	return nil
}

// SetText replaces the draft and recomputes violations synchronously, so no
// stale validation result can ever gate a submission.
func (s *intakeService) SetText(sessionId uuid.UUID, req *dto.UpdateTextRequest) (*dto.TextValidationResponse, error) {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}

	violations := textrules.Validate(s.policy, req.Content)

	session.Lock()
	session.Text = entity.TextDraft{
		Content:    req.Content,
		Violations: violations,
	}
	session.Unlock()

	return &dto.TextValidationResponse{
		Valid:      len(violations) == 0,
		Violations: violationsOrEmpty(violations),
	}, nil
}

// DeleteSession tears a session down explicitly. The store's eviction hook
// releases any live recording, same as on TTL expiry.
func (s *intakeService) DeleteSession(sessionId uuid.UUID) error {
	if _, ok := s.sessions.Get(sessionId); !ok {
		return ErrSessionNotFound
	}
	s.sessions.Delete(sessionId)
	return nil
}

// FormatDuration renders a second counter as MM:SS. Derived view only.
func FormatDuration(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

func stagedFileInfo(f *entity.StagedFile) dto.StagedFileInfo {
	return dto.StagedFileInfo{
		Id:       f.Id,
		Filename: f.Filename,
		Size:     len(f.Data),
		Status:   f.Status,
		AddedAt:  f.AddedAt,
	}
}

func violationsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func toProcessingInfo(info entity.ProjectInfo) processing.ProjectInfo {
	return processing.ProjectInfo{
		Title:   info.Title,
		Author:  info.Author,
		Version: info.Version,
	}
}

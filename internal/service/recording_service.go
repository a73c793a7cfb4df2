package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"requirements-intake-be/internal/capture"
	"requirements-intake-be/internal/entity"
	"requirements-intake-be/internal/pkg/logger"
	"requirements-intake-be/internal/repository/memory"
)

type IRecordingService interface {
	Start(sessionId uuid.UUID) error
	Stop(sessionId uuid.UUID) error
	Clear(sessionId uuid.UUID) error
	// Clip resolves a playback token to the captured audio.
	Clip(sessionId uuid.UUID, token uuid.UUID) ([]byte, error)
}

// activeRecording holds the runtime handles of one live recording: the
// acquired capture session and the tick cancellation channel. These never
// leave the service; the session entity only carries the visible state.
type activeRecording struct {
	capture capture.Session
	stop    chan struct{}
}

type recordingService struct {
	sessions *memory.SessionRepository
	device   capture.Device
	logger   logger.ILogger

	tickInterval time.Duration

	mu     sync.Mutex
	active map[uuid.UUID]*activeRecording
}

func NewRecordingService(sessions *memory.SessionRepository, device capture.Device, log logger.ILogger) IRecordingService {
	s := &recordingService{
		sessions:     sessions,
		device:       device,
		logger:       log,
		tickInterval: time.Second,
		active:       make(map[uuid.UUID]*activeRecording),
	}
	sessions.OnEvicted(s.releaseOnEviction)
	return s
}

// releaseOnEviction cancels the live recording of a session that expired or
// was deleted. Without it the tick goroutine, the active map entry and the
// capture device slot would all leak on every abandoned recording.
func (s *recordingService) releaseOnEviction(session *entity.IntakeSession) {
	s.mu.Lock()
	ar := s.active[session.Id]
	delete(s.active, session.Id)
	s.mu.Unlock()

	if ar == nil {
		return
	}

	close(ar.stop)
	if err := ar.capture.Close(); err != nil {
		s.logger.Warn("recording", "Capture session close failed", map[string]interface{}{
			"session_id": session.Id,
			"error":      err.Error(),
		})
	}

	session.Lock()
	session.Recording.State = entity.RecordingIdle
	session.Recording.Clip = nil
	session.Recording.DurationSec = 0
	session.Unlock()

	s.logger.Warn("recording", "Recording cancelled by session eviction", map[string]interface{}{
		"session_id": session.Id,
	})
}

// Start transitions Idle -> Recording: acquires the capture device, resets
// the duration counter and launches the one-second tick. A device refusal
// leaves the session Idle so the user can retry.
func (s *recordingService) Start(sessionId uuid.UUID) error {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Recording.State != entity.RecordingIdle {
		return ErrInvalidRecordingState
	}

	capSession, err := s.device.Acquire(sessionId)
	if err != nil {
		s.logger.Warn("recording", "Capture device denied", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return ErrDeviceDenied
	}

	session.Recording.State = entity.RecordingActive
	session.Recording.DurationSec = 0

	stop := make(chan struct{})
	s.mu.Lock()
	s.active[sessionId] = &activeRecording{capture: capSession, stop: stop}
	s.mu.Unlock()

	go s.tick(session, stop)

	s.logger.Info("recording", "Recording started", map[string]interface{}{
		"session_id": sessionId,
	})
	return nil
}

// tick drives the duration counter once per interval until the stop channel
// closes. Stop() and eviction both close the channel before releasing the
// device, so the ticker can never outlive its recording. Each tick also
// refreshes the store TTL so a session cannot expire mid-recording.
func (s *recordingService) tick(session *entity.IntakeSession, stop chan struct{}) {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			session.Lock()
			if session.Recording.State == entity.RecordingActive {
				session.Recording.DurationSec++
			}
			session.Unlock()
			s.sessions.Touch(session)
		}
	}
}

// Stop transitions Recording -> Captured: cancels the tick, releases the
// capture device unconditionally and finalizes the buffer into an immutable
// clip with a fresh playback token.
func (s *recordingService) Stop(sessionId uuid.UUID) error {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Recording.State != entity.RecordingActive {
		return ErrInvalidRecordingState
	}

	s.mu.Lock()
	ar := s.active[sessionId]
	delete(s.active, sessionId)
	s.mu.Unlock()

	if ar == nil {
		// State said Recording but the handles are gone; repair to Idle
		// rather than leave a session wedged.
		session.Recording.State = entity.RecordingIdle
		return ErrInvalidRecordingState
	}

	close(ar.stop)

	data := ar.capture.Bytes()
	if err := ar.capture.Close(); err != nil {
		s.logger.Warn("recording", "Capture session close failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}

	session.Recording.Clip = &entity.AudioClip{
		Data:          data,
		PlaybackToken: uuid.New(),
	}
	session.Recording.State = entity.RecordingCaptured

	s.logger.Info("recording", "Recording captured", map[string]interface{}{
		"session_id": sessionId,
		"bytes":      len(data),
		"duration":   FormatDuration(session.Recording.DurationSec),
	})
	return nil
}

// Clear transitions Captured -> Idle: destroys the clip, revokes its
// playback token and resets the duration counter.
func (s *recordingService) Clear(sessionId uuid.UUID) error {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	if session.Recording.State != entity.RecordingCaptured {
		return ErrInvalidRecordingState
	}

	session.Recording.Clip = nil
	session.Recording.DurationSec = 0
	session.Recording.State = entity.RecordingIdle

	s.logger.Info("recording", "Recording cleared", map[string]interface{}{
		"session_id": sessionId,
	})
	return nil
}

func (s *recordingService) Clip(sessionId uuid.UUID, token uuid.UUID) ([]byte, error) {
	session, ok := s.sessions.Get(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}

	session.Lock()
	defer session.Unlock()

	clip := session.Recording.Clip
	if clip == nil || clip.PlaybackToken != token {
		return nil, ErrInvalidRecordingState
	}
	return clip.Data, nil
}

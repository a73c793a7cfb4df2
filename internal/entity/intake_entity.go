package entity

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"requirements-intake-be/pkg/processing"
)

// InputMode selects which staged modality a submission draws from.
type InputMode string

const (
	ModeText  InputMode = "text"
	ModeAudio InputMode = "audio"
	ModeFile  InputMode = "file"
)

// ProjectInfo is free-form metadata attached to every submission.
// No validation by design of the remote contract.
type ProjectInfo struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Version string `json:"version"`
}

const DefaultProjectVersion = "1.0"

// TextDraft holds the current text value plus the violations derived from it.
// Violations are recomputed on every edit so submission never gates on a
// stale result.
type TextDraft struct {
	Content    string   `json:"content"`
	Violations []string `json:"violations"`
}

func (d *TextDraft) Valid() bool {
	return len(d.Violations) == 0
}

// StagedFile is one entry in the file staging queue. Identity is Id, not
// filename: duplicate filenames are distinct entries. Immutable after
// creation except Status.
type StagedFile struct {
	Id          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	Status      string    `json:"status"`
	AddedAt     time.Time `json:"added_at"`
}

const FileStatusPending = "pending"

// RecordingState is the lifecycle phase of the single recording session.
type RecordingState string

const (
	RecordingIdle     RecordingState = "idle"
	RecordingActive   RecordingState = "recording"
	RecordingCaptured RecordingState = "captured"
)

// AudioClip is the finalized capture. Immutable; destroyed by clear().
// PlaybackToken is the revocable handle clients use to fetch the clip back.
type AudioClip struct {
	Data          []byte
	PlaybackToken uuid.UUID
}

// Recording is the per-session recording lifecycle state. DurationSec is
// driven by the one-second tick while recording and frozen on stop.
type Recording struct {
	State       RecordingState
	DurationSec int
	Clip        *AudioClip
}

// IntakeSession is the unit of shared mutable state: one per client, owned
// by the session store. All access goes through Lock/Unlock except the
// submission re-entrancy flag, which uses its own guard so a second submit
// is turned away without waiting on the mutex.
type IntakeSession struct {
	mu sync.Mutex

	Id          uuid.UUID
	ProjectInfo ProjectInfo
	Mode        InputMode
	Text        TextDraft
	Recording   Recording
	StagedFiles []*StagedFile

	processing bool
	procMu     sync.Mutex

	LastResult   processing.Result
	LastDocument processing.Document
	LastError    *processing.NormalizedError

	CreatedAt time.Time
}

func NewIntakeSession(info ProjectInfo) *IntakeSession {
	if info.Version == "" {
		info.Version = DefaultProjectVersion
	}
	return &IntakeSession{
		Id:          uuid.New(),
		ProjectInfo: info,
		Mode:        ModeText,
		Recording:   Recording{State: RecordingIdle},
		StagedFiles: make([]*StagedFile, 0),
		CreatedAt:   time.Now(),
	}
}

func (s *IntakeSession) Lock()   { s.mu.Lock() }
func (s *IntakeSession) Unlock() { s.mu.Unlock() }

// BeginSubmit sets the re-entrancy flag. Returns false if a submission is
// already in flight; the caller must not proceed.
func (s *IntakeSession) BeginSubmit() bool {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	if s.processing {
		return false
	}
	s.processing = true
	return true
}

// EndSubmit clears the re-entrancy flag. Deferred on every submit exit path.
func (s *IntakeSession) EndSubmit() {
	s.procMu.Lock()
	s.processing = false
	s.procMu.Unlock()
}

func (s *IntakeSession) SubmissionInFlight() bool {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	return s.processing
}

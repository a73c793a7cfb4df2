package dto

import (
	"time"

	"github.com/google/uuid"

	"requirements-intake-be/pkg/processing"
)

type CreateSessionRequest struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Version string `json:"version"`
}

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type UpdateProjectInfoRequest struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Version string `json:"version"`
}

type UpdateModeRequest struct {
	Mode string `json:"mode" validate:"required,oneof=text audio file"`
}

type UpdateTextRequest struct {
	Content string `json:"content"`
}

type TextValidationResponse struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}

type StagedFileInfo struct {
	Id       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
	Size     int       `json:"size"`
	Status   string    `json:"status"`
	AddedAt  time.Time `json:"added_at"`
}

type AddFilesResponse struct {
	Files []StagedFileInfo `json:"files"`
}

type RecordingInfo struct {
	State         string     `json:"state"`
	Duration      string     `json:"duration"` // MM:SS, derived view
	DurationSec   int        `json:"duration_sec"`
	HasClip       bool       `json:"has_clip"`
	PlaybackToken *uuid.UUID `json:"playback_token,omitempty"`
}

type ProjectInfoResponse struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Version string `json:"version"`
}

// SessionResponse is the full snapshot clients poll between actions.
type SessionResponse struct {
	Id          uuid.UUID                   `json:"id"`
	Mode        string                      `json:"mode"`
	ProjectInfo ProjectInfoResponse         `json:"project_info"`
	Text        TextValidationResponse      `json:"text"`
	TextContent string                      `json:"text_content"`
	Recording   RecordingInfo               `json:"recording"`
	Files       []StagedFileInfo            `json:"files"`
	Processing  bool                        `json:"processing"`
	LastResult  processing.Result           `json:"last_result,omitempty"`
	Document    processing.Document         `json:"document,omitempty"`
	LastError   *processing.NormalizedError `json:"last_error,omitempty"`
}

// SubmitResponse reports the terminal state of one submission attempt.
// Remote failures arrive here as data, never as a transport-level error.
type SubmitResponse struct {
	Status string                      `json:"status"`
	Result processing.Result           `json:"result,omitempty"`
	Error  *processing.NormalizedError `json:"error,omitempty"`
}

// SubmissionCompletedMessage is the bus payload that triggers SRS generation.
type SubmissionCompletedMessage struct {
	SessionId uuid.UUID `json:"session_id"`
}

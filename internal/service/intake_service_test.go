package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"requirements-intake-be/internal/dto"
	"requirements-intake-be/internal/entity"
	"requirements-intake-be/internal/repository/memory"
	"requirements-intake-be/pkg/textrules"
)

func newIntakeFixture() (IIntakeService, *memory.SessionRepository) {
	repo := memory.NewSessionRepository(time.Hour)
	return NewIntakeService(repo, textrules.PolicyStrict), repo
}

func TestCreateSessionDefaults(t *testing.T) {
	svc, repo := newIntakeFixture()

	resp, err := svc.CreateSession(&dto.CreateSessionRequest{Title: "inventory system", Author: "pm team"})
	require.NoError(t, err)

	session, ok := repo.Get(resp.Id)
	require.True(t, ok)
	assert.Equal(t, entity.ModeText, session.Mode)
	assert.Equal(t, entity.DefaultProjectVersion, session.ProjectInfo.Version)
	assert.Equal(t, entity.RecordingIdle, session.Recording.State)
	assert.Empty(t, session.StagedFiles)
}

func TestSetTextRevalidatesSynchronously(t *testing.T) {
	svc, _ := newIntakeFixture()
	created, err := svc.CreateSession(&dto.CreateSessionRequest{})
	require.NoError(t, err)

	resp, err := svc.SetText(created.Id, &dto.UpdateTextRequest{Content: "too short"})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Violations)

	// The snapshot reflects the edit immediately, never a stale verdict.
	snap, err := svc.Show(created.Id)
	require.NoError(t, err)
	assert.False(t, snap.Text.Valid)
	assert.Equal(t, resp.Violations, snap.Text.Violations)
	assert.Equal(t, "too short", snap.TextContent)

	resp, err = svc.SetText(created.Id, &dto.UpdateTextRequest{Content: validText})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Violations)
}

func TestSetModePreservesOtherModalities(t *testing.T) {
	svc, repo := newIntakeFixture()
	created, err := svc.CreateSession(&dto.CreateSessionRequest{})
	require.NoError(t, err)

	session, _ := repo.Get(created.Id)
	session.Text = entity.TextDraft{Content: "draft"}
	session.Recording = entity.Recording{
		State: entity.RecordingCaptured,
		Clip:  &entity.AudioClip{Data: []byte("pcm"), PlaybackToken: uuid.New()},
	}
	session.StagedFiles = []*entity.StagedFile{{Id: uuid.New(), Filename: "a.pdf"}}

	require.NoError(t, svc.SetMode(created.Id, &dto.UpdateModeRequest{Mode: "file"}))
	require.NoError(t, svc.SetMode(created.Id, &dto.UpdateModeRequest{Mode: "text"}))

	assert.Equal(t, "draft", session.Text.Content)
	assert.NotNil(t, session.Recording.Clip)
	assert.Len(t, session.StagedFiles, 1)
}

func TestSetProjectInfoFallsBackToDefaultVersion(t *testing.T) {
	svc, repo := newIntakeFixture()
	created, err := svc.CreateSession(&dto.CreateSessionRequest{})
	require.NoError(t, err)

	require.NoError(t, svc.SetProjectInfo(created.Id, &dto.UpdateProjectInfoRequest{
		Title:  "billing revamp",
		Author: "core team",
	}))

	session, _ := repo.Get(created.Id)
	assert.Equal(t, "billing revamp", session.ProjectInfo.Title)
	assert.Equal(t, entity.DefaultProjectVersion, session.ProjectInfo.Version)
}

func TestDeleteSessionRemovesFromStore(t *testing.T) {
	svc, repo := newIntakeFixture()
	created, err := svc.CreateSession(&dto.CreateSessionRequest{})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(created.Id))

	_, ok := repo.Get(created.Id)
	assert.False(t, ok)
	assert.ErrorIs(t, svc.DeleteSession(created.Id), ErrSessionNotFound)
}

func TestShowUnknownSession(t *testing.T) {
	svc, _ := newIntakeFixture()
	_, err := svc.Show(uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestShowEmptySessionShape(t *testing.T) {
	svc, _ := newIntakeFixture()
	created, err := svc.CreateSession(&dto.CreateSessionRequest{Title: "t"})
	require.NoError(t, err)

	snap, err := svc.Show(created.Id)
	require.NoError(t, err)
	assert.Equal(t, "text", snap.Mode)
	assert.NotNil(t, snap.Files, "files renders as an empty list, not null")
	assert.NotNil(t, snap.Text.Violations)
	assert.False(t, snap.Processing)
	assert.Equal(t, "00:00", snap.Recording.Duration)
	assert.Nil(t, snap.Recording.PlaybackToken)
}

package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"requirements-intake-be/internal/entity"
)

func TestStagingAddPreservesOrderAndIdentity(t *testing.T) {
	session := entity.NewIntakeSession(entity.ProjectInfo{})
	svc := NewStagingService(memorySessionsOf(session), nopLogger{})

	resp, err := svc.Add(session.Id, []IncomingFile{
		{Filename: "a.pdf", ContentType: "application/pdf", Data: []byte("aaa")},
		{Filename: "b.docx", ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Data: []byte("bbbb")},
	})
	require.NoError(t, err)
	require.Len(t, resp.Files, 2)

	assert.Equal(t, "a.pdf", resp.Files[0].Filename)
	assert.Equal(t, "b.docx", resp.Files[1].Filename)
	assert.Equal(t, 3, resp.Files[0].Size)
	assert.Equal(t, entity.FileStatusPending, resp.Files[0].Status)
	assert.NotEqual(t, resp.Files[0].Id, resp.Files[1].Id)
}

func TestStagingDuplicateFilenamesAreDistinctEntries(t *testing.T) {
	session := entity.NewIntakeSession(entity.ProjectInfo{})
	svc := NewStagingService(memorySessionsOf(session), nopLogger{})

	_, err := svc.Add(session.Id, []IncomingFile{{Filename: "notes.txt"}})
	require.NoError(t, err)
	_, err = svc.Add(session.Id, []IncomingFile{{Filename: "notes.txt"}})
	require.NoError(t, err)

	require.Len(t, session.StagedFiles, 2)
	assert.NotEqual(t, session.StagedFiles[0].Id, session.StagedFiles[1].Id)
}

func TestStagingRemoveKeepsRemainingOrder(t *testing.T) {
	session := entity.NewIntakeSession(entity.ProjectInfo{})
	svc := NewStagingService(memorySessionsOf(session), nopLogger{})

	resp, err := svc.Add(session.Id, []IncomingFile{
		{Filename: "a.pdf"},
		{Filename: "b.pdf"},
		{Filename: "c.pdf"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(session.Id, resp.Files[1].Id))

	require.Len(t, session.StagedFiles, 2)
	assert.Equal(t, resp.Files[0].Id, session.StagedFiles[0].Id)
	assert.Equal(t, resp.Files[2].Id, session.StagedFiles[1].Id)
}

func TestStagingRemoveUnknownIdIsNoOp(t *testing.T) {
	session := entity.NewIntakeSession(entity.ProjectInfo{})
	svc := NewStagingService(memorySessionsOf(session), nopLogger{})

	_, err := svc.Add(session.Id, []IncomingFile{{Filename: "a.pdf"}})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(session.Id, uuid.New()))
	assert.Len(t, session.StagedFiles, 1)
}

func TestStagingUnknownSession(t *testing.T) {
	svc := NewStagingService(memorySessionsOf(), nopLogger{})

	_, err := svc.Add(uuid.New(), []IncomingFile{{Filename: "a.pdf"}})
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Remove(uuid.New(), uuid.New()), ErrSessionNotFound)
}

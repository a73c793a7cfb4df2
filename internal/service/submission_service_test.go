package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmessage "github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"requirements-intake-be/internal/entity"
	"requirements-intake-be/pkg/processing"
	"requirements-intake-be/pkg/textrules"
)

// validText clears the strict ruleset: letters only, fifty words.
var validText = strings.TrimSpace(strings.Repeat("the system shall allow users to browse the catalog and ", 5))

type fakeClient struct {
	mu sync.Mutex

	textCalls  int
	audioCalls int
	fileCalls  int
	srsCalls   int

	lastText    string
	lastClip    []byte
	lastFiles   []processing.UploadFile
	lastResults []any

	result processing.Result
	err    error
	doc    processing.Document
	srsErr error

	// When set, ProcessText blocks until the channel closes.
	gate chan struct{}
}

func (c *fakeClient) ProcessText(_ context.Context, content string, _ processing.ProjectInfo) (processing.Result, error) {
	c.mu.Lock()
	c.textCalls++
	c.lastText = content
	gate := c.gate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return c.result, c.err
}

func (c *fakeClient) ProcessAudio(_ context.Context, clip []byte, _ processing.ProjectInfo) (processing.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.audioCalls++
	c.lastClip = clip
	return c.result, c.err
}

func (c *fakeClient) ProcessFiles(_ context.Context, files []processing.UploadFile, _ processing.ProjectInfo) (processing.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fileCalls++
	c.lastFiles = files
	return c.result, c.err
}

func (c *fakeClient) GenerateSRS(_ context.Context, results []any, _ processing.ProjectInfo) (processing.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.srsCalls++
	c.lastResults = results
	return c.doc, c.srsErr
}

func (c *fakeClient) calls() (text, audio, file int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.textCalls, c.audioCalls, c.fileCalls
}

type fakePublisher struct {
	mu       sync.Mutex
	topics   []string
	messages []*wmessage.Message
	err      error
}

func (p *fakePublisher) Publish(topic string, messages ...*wmessage.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.messages = append(p.messages, messages...)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func newSubmissionFixture(client *fakeClient, pub Publisher) (ISubmissionService, *entity.IntakeSession) {
	session := entity.NewIntakeSession(entity.ProjectInfo{Title: "inventory system"})
	repo := memorySessionsOf(session)
	svc := NewSubmissionService(repo, client, pub, "SUBMISSION_COMPLETED", textrules.PolicyStrict, nopLogger{})
	return svc, session
}

func TestSubmitTextTakesPriority(t *testing.T) {
	client := &fakeClient{result: processing.Result{"status": "pending"}}
	svc, session := newSubmissionFixture(client, &fakePublisher{})

	// Stage all three modalities; only text may go out.
	session.Text = entity.TextDraft{Content: validText}
	session.Recording.Clip = &entity.AudioClip{Data: []byte("clip"), PlaybackToken: uuid.New()}
	session.StagedFiles = []*entity.StagedFile{{Id: uuid.New(), Filename: "a.pdf"}}

	resp, err := svc.Submit(context.Background(), session.Id)
	require.NoError(t, err)

	text, audio, file := client.calls()
	assert.Equal(t, 1, text)
	assert.Zero(t, audio)
	assert.Zero(t, file)
	assert.Equal(t, validText, client.lastText)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, client.result, session.LastResult)
}

func TestSubmitClipBeforeFiles(t *testing.T) {
	client := &fakeClient{result: processing.Result{"status": "pending"}}
	svc, session := newSubmissionFixture(client, &fakePublisher{})

	session.Recording.Clip = &entity.AudioClip{Data: []byte("pcm"), PlaybackToken: uuid.New()}
	session.StagedFiles = []*entity.StagedFile{{Id: uuid.New(), Filename: "a.pdf"}}

	_, err := svc.Submit(context.Background(), session.Id)
	require.NoError(t, err)

	text, audio, file := client.calls()
	assert.Zero(t, text)
	assert.Equal(t, 1, audio)
	assert.Zero(t, file)
	assert.Equal(t, []byte("pcm"), client.lastClip)
}

func TestSubmitFilesPreserveStagedOrder(t *testing.T) {
	client := &fakeClient{result: processing.Result{"status": "pending"}}
	svc, session := newSubmissionFixture(client, &fakePublisher{})

	session.StagedFiles = []*entity.StagedFile{
		{Id: uuid.New(), Filename: "first.pdf", Data: []byte("one")},
		{Id: uuid.New(), Filename: "second.txt", Data: []byte("two")},
	}

	_, err := svc.Submit(context.Background(), session.Id)
	require.NoError(t, err)

	require.Len(t, client.lastFiles, 2)
	assert.Equal(t, "first.pdf", client.lastFiles[0].Filename)
	assert.Equal(t, "second.txt", client.lastFiles[1].Filename)
}

func TestSubmitNoInput(t *testing.T) {
	client := &fakeClient{}
	svc, session := newSubmissionFixture(client, &fakePublisher{})

	_, err := svc.Submit(context.Background(), session.Id)
	assert.ErrorIs(t, err, ErrNoInput)

	text, audio, file := client.calls()
	assert.Zero(t, text+audio+file, "no request may go out without staged input")
	assert.False(t, session.SubmissionInFlight(), "guard must clear on the no-input exit")
}

func TestSubmitInvalidTextNeverTouchesNetwork(t *testing.T) {
	client := &fakeClient{}
	svc, session := newSubmissionFixture(client, &fakePublisher{})

	session.Text = entity.TextDraft{Content: "short draft with digits 123"}

	_, err := svc.Submit(context.Background(), session.Id)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Violations)

	text, audio, file := client.calls()
	assert.Zero(t, text+audio+file)
	assert.False(t, session.SubmissionInFlight())
}

func TestSubmitRemoteFailureComesBackAsData(t *testing.T) {
	client := &fakeClient{
		err: &processing.APIError{
			StatusCode: 400,
			Body:       []byte(`{"error": "Text should not contain numbers"}`),
		},
	}
	svc, session := newSubmissionFixture(client, &fakePublisher{})
	session.Text = entity.TextDraft{Content: validText}

	resp, err := svc.Submit(context.Background(), session.Id)
	require.NoError(t, err, "remote failures are data, not errors")

	assert.Equal(t, "failed", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, []string{"Text should not contain numbers"}, resp.Error.Details)
	assert.Equal(t, resp.Error, session.LastError)
	assert.False(t, session.SubmissionInFlight(), "guard must clear on the failure exit")
}

func TestSubmitReentrancyGuard(t *testing.T) {
	gate := make(chan struct{})
	client := &fakeClient{result: processing.Result{"status": "pending"}, gate: gate}
	svc, session := newSubmissionFixture(client, &fakePublisher{})
	session.Text = entity.TextDraft{Content: validText}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Submit(context.Background(), session.Id)
		assert.NoError(t, err)
	}()

	require.Eventually(t, session.SubmissionInFlight, time.Second, time.Millisecond)

	// Second submit is turned away without blocking on the first.
	_, err := svc.Submit(context.Background(), session.Id)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(gate)
	<-done
	assert.False(t, session.SubmissionInFlight(), "guard must clear after completion")

	// And a fresh attempt is accepted again.
	client.gate = nil
	_, err = svc.Submit(context.Background(), session.Id)
	assert.NoError(t, err)
}

func TestSubmitPublishesOnlyOnCompleted(t *testing.T) {
	pub := &fakePublisher{}
	client := &fakeClient{result: processing.Result{"status": "pending"}}
	svc, session := newSubmissionFixture(client, pub)
	session.Text = entity.TextDraft{Content: validText}

	_, err := svc.Submit(context.Background(), session.Id)
	require.NoError(t, err)
	assert.Zero(t, pub.count(), "no chaining while the result is not completed")

	client.result = processing.Result{"status": processing.StatusCompleted}
	_, err = svc.Submit(context.Background(), session.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, pub.count())
	assert.Equal(t, "SUBMISSION_COMPLETED", pub.topics[0])
}

func TestSubmitPublishFailureDoesNotFailSubmission(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	client := &fakeClient{result: processing.Result{"status": processing.StatusCompleted}}
	svc, session := newSubmissionFixture(client, pub)
	session.Text = entity.TextDraft{Content: validText}

	resp, err := svc.Submit(context.Background(), session.Id)
	require.NoError(t, err)
	assert.Equal(t, processing.StatusCompleted, resp.Status)
	assert.Nil(t, session.LastError)
}

func TestSubmitChainsSRSGeneration(t *testing.T) {
	inner := []any{map[string]any{"status": "completed", "source_file": "a.pdf"}}
	client := &fakeClient{
		result: processing.Result{"status": processing.StatusCompleted, "results": inner},
		doc:    processing.Document{"title": "Software Requirements Specification"},
	}

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	session := entity.NewIntakeSession(entity.ProjectInfo{Title: "inventory system"})
	repo := memorySessionsOf(session)
	session.Text = entity.TextDraft{Content: validText}

	const topic = "SUBMISSION_COMPLETED"
	gen := NewGenerationService(bus, topic, repo, client, nopLogger{})
	require.NoError(t, gen.Consume(context.Background()))

	svc := NewSubmissionService(repo, client, bus, topic, textrules.PolicyStrict, nopLogger{})
	_, err := svc.Submit(context.Background(), session.Id)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		session.Lock()
		defer session.Unlock()
		return session.LastDocument != nil
	}, 2*time.Second, 5*time.Millisecond)

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, 1, client.srsCalls)
	// The batch shape hands its nested results straight through.
	assert.Equal(t, inner, client.lastResults)
	session.Lock()
	assert.Equal(t, client.doc, session.LastDocument)
	session.Unlock()
}

func TestSubmitGenerationFailureLeavesSubmissionIntact(t *testing.T) {
	client := &fakeClient{
		result: processing.Result{"status": processing.StatusCompleted},
		srsErr: errors.New("generation backend unavailable"),
	}

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	session := entity.NewIntakeSession(entity.ProjectInfo{})
	repo := memorySessionsOf(session)
	session.Text = entity.TextDraft{Content: validText}

	const topic = "SUBMISSION_COMPLETED"
	gen := NewGenerationService(bus, topic, repo, client, nopLogger{})
	require.NoError(t, gen.Consume(context.Background()))

	svc := NewSubmissionService(repo, client, bus, topic, textrules.PolicyStrict, nopLogger{})
	resp, err := svc.Submit(context.Background(), session.Id)
	require.NoError(t, err)
	assert.Equal(t, processing.StatusCompleted, resp.Status)

	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.srsCalls == 1
	}, 2*time.Second, 5*time.Millisecond)

	session.Lock()
	defer session.Unlock()
	assert.Nil(t, session.LastDocument)
	assert.Equal(t, client.result, session.LastResult, "the submission result stays stored")
	assert.Nil(t, session.LastError)
}

func TestSubmitUnknownSession(t *testing.T) {
	svc, _ := newSubmissionFixture(&fakeClient{}, &fakePublisher{})
	_, err := svc.Submit(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

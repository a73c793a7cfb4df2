package processing

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testInfo = ProjectInfo{Title: "Inventory System", Author: "QA", Version: "1.0"}

func TestProcessTextRequestShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/process-single", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "completed"})
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL).ProcessText(context.Background(), "some requirement text", testInfo)
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status())

	assert.Equal(t, "text", got["type"])
	assert.Equal(t, "some requirement text", got["content"])
	info, ok := got["project_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Inventory System", info["title"])
}

func TestProcessAudioMultipartShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/process-audio", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		files := r.MultipartForm.File["audio"]
		require.Len(t, files, 1)
		assert.Equal(t, RecordingFilename, files[0].Filename)

		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, data)

		var info ProjectInfo
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("project_info")), &info))
		assert.Equal(t, testInfo, info)

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "completed", "source_type": "audio_recording"})
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL).ProcessAudio(context.Background(), []byte{1, 2, 3}, testInfo)
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status())
}

func TestProcessFilesRepeatedPartsPreserveOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/process-batch", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "first.txt", files[0].Filename)
		assert.Equal(t, "second.txt", files[1].Filename)

		_ = json.NewEncoder(w).Encode(map[string]any{"status": "completed", "results": []any{}})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ProcessFiles(context.Background(), []UploadFile{
		{Filename: "first.txt", Data: []byte("aaa")},
		{Filename: "second.txt", Data: []byte("bbb")},
	}, testInfo)
	require.NoError(t, err)
}

func TestGenerateSRSRequestShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate-srs", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"document_id": "srs-1", "title": "SRS"})
	}))
	defer srv.Close()

	doc, err := NewClient(srv.URL).GenerateSRS(context.Background(), []any{map[string]any{"status": "completed"}}, testInfo)
	require.NoError(t, err)
	assert.Equal(t, "srs-1", doc["document_id"])

	results, ok := got["results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 1)
}

func TestErrorBodyKeptForNormalizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "No content provided"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ProcessText(context.Background(), "", testInfo)
	require.Error(t, err)

	n := Normalize(err)
	assert.Equal(t, "No content provided", n.Headline)
}

func TestResultsListWrapping(t *testing.T) {
	batch := Result{"status": "completed", "results": []any{map[string]any{"a": 1.0}}}
	assert.Len(t, batch.ResultsList(), 1)
	assert.Equal(t, batch["results"], []any(batch.ResultsList()))

	single := Result{"status": "completed", "original_text": "hi"}
	wrapped := single.ResultsList()
	require.Len(t, wrapped, 1)
	assert.Equal(t, map[string]any(single), wrapped[0])
}

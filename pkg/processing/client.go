package processing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const (
	pathProcessSingle = "/api/process-single"
	pathProcessAudio  = "/api/process-audio"
	pathProcessBatch  = "/api/process-batch"
	pathGenerateSRS   = "/api/generate-srs"
	pathHealth        = "/api/health"
)

// RecordingFilename is the fixed part filename the audio contract expects.
const RecordingFilename = "recording.wav"

// Client talks to the remote Requirements Engineering API.
//
// No request timeout is configured: the upstream contract has no timeout or
// cancellation semantics, so a hung call blocks the current submission until
// the connection dies. Callers can still pass a cancellable context.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

type processTextRequest struct {
	Type        string      `json:"type"`
	Content     string      `json:"content"`
	ProjectInfo ProjectInfo `json:"project_info"`
}

// ProcessText submits a free-text requirement as the JSON shape.
func (c *Client) ProcessText(ctx context.Context, content string, info ProjectInfo) (Result, error) {
	body, err := json.Marshal(processTextRequest{
		Type:        "text",
		Content:     content,
		ProjectInfo: info,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathProcessSingle, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var result Result
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessAudio submits a captured clip as a multipart payload with a single
// binary part named "audio" and project_info serialized as a text field.
func (c *Client) ProcessAudio(ctx context.Context, clip []byte, info ProjectInfo) (Result, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := createAudioPart(w)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(clip); err != nil {
		return nil, err
	}
	if err := writeProjectInfoField(w, info); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathProcessAudio, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result Result
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ProcessFiles submits staged files as a multipart payload with one "files"
// part per entry, preserving staging order.
func (c *Client) ProcessFiles(ctx context.Context, files []UploadFile, info ProjectInfo) (Result, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := createFilePart(w, f)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := writeProjectInfoField(w, info); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathProcessBatch, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var result Result
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

type generateSRSRequest struct {
	Results     []any       `json:"results"`
	ProjectInfo ProjectInfo `json:"project_info"`
}

// GenerateSRS calls the derived-document contract with processed results.
func (c *Client) GenerateSRS(ctx context.Context, results []any, info ProjectInfo) (Document, error) {
	body, err := json.Marshal(generateSRSRequest{
		Results:     results,
		ProjectInfo: info,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathGenerateSRS, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var doc Document
	if err := c.do(req, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Health pings the remote API's health endpoint.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathHealth, nil)
	if err != nil {
		return nil, err
	}

	var status map[string]any
	if err := c.do(req, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// do executes a request, keeping non-2xx bodies verbatim inside an APIError
// for the normalizer.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: body}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode processing response: %w", err)
	}
	return nil
}

func createAudioPart(w *multipart.Writer) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename=%q`, RecordingFilename))
	h.Set("Content-Type", "audio/wav")
	return w.CreatePart(h)
}

func createFilePart(w *multipart.Writer, f UploadFile) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Filename))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}

func writeProjectInfoField(w *multipart.Writer, info ProjectInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return w.WriteField("project_info", string(raw))
}

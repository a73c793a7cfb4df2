// Package processing is the HTTP client for the remote Requirements
// Engineering API: the processing contract (text / audio / batch file
// submission) and the SRS generation contract, plus the normalizer that
// folds the API's assorted failure payloads into one shape.
package processing

import (
	"fmt"
	"net/http"
)

// ProjectInfo travels with every request to both contracts.
type ProjectInfo struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Version string `json:"version"`
}

// Result is the opaque success payload of the processing contract. Only the
// status field is interpreted locally; everything else passes through
// untouched (source_file, original_text, extracted fields, ...).
type Result map[string]any

// Status returns the result's status field, or "" when absent.
func (r Result) Status() string {
	s, _ := r["status"].(string)
	return s
}

// StatusCompleted is the only status that triggers SRS chaining.
const StatusCompleted = "completed"

// ResultsList builds the payload for the SRS contract out of a processing
// result: the nested results list when the batch shape carried one, else the
// whole result wrapped as a single-element list.
func (r Result) ResultsList() []any {
	if inner, ok := r["results"].([]any); ok {
		return inner
	}
	return []any{map[string]any(r)}
}

// Document is the opaque SRS document returned by the generation contract.
type Document map[string]any

// UploadFile is one entry of a batch submission.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// APIError carries a non-2xx response body verbatim so the normalizer can
// pick it apart later.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("processing api: %s", http.StatusText(e.StatusCode))
}

// NormalizedError is the single internal error representation every remote
// failure shape resolves to.
type NormalizedError struct {
	Headline string   `json:"headline"`
	Details  []string `json:"details"`
}

package processing

import (
	"encoding/json"
	"errors"
	"strings"
)

const (
	// FilesFailedHeadline is the fixed headline for the per-file shape; the
	// detail lines carry the actual filenames and messages.
	FilesFailedHeadline = "Files failed validation"
	// GenericFailureHeadline is the last-resort headline when the failure
	// carried no usable message at all.
	GenericFailureHeadline = "Submission failed"
)

// errorEnvelope is the common wrapper the API puts around failures. The
// validation_errors field is kept raw because its element type differs
// between the per-file and the flat-list shapes.
type errorEnvelope struct {
	Error            string          `json:"error"`
	ValidationErrors json.RawMessage `json:"validation_errors"`
}

// fileViolations is one entry of the per-file-upload failure shape.
type fileViolations struct {
	File   string   `json:"file"`
	Errors []string `json:"errors"`
}

// Normalize resolves any failure from the processing contract into a
// NormalizedError. Total: every input, including errors that carry no
// payload at all, produces a value. The known payload shapes are tried in a
// fixed order; transport errors fall out the bottom.
func Normalize(err error) *NormalizedError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return transportError(err.Error())
	}

	var envelope errorEnvelope
	if jsonErr := json.Unmarshal(apiErr.Body, &envelope); jsonErr != nil {
		// Body is not the JSON envelope; maybe a bare string.
		var bare string
		if json.Unmarshal(apiErr.Body, &bare) == nil && bare != "" {
			return singleMessage(bare, "")
		}
		return transportError(apiErr.Error())
	}

	if len(envelope.ValidationErrors) > 0 {
		if n := normalizePerFile(envelope); n != nil {
			return n
		}
		if n := normalizeFlatList(envelope); n != nil {
			return n
		}
	}
	if envelope.Error != "" {
		return singleMessage(envelope.Error, envelope.Error)
	}
	return transportError(apiErr.Error())
}

func normalizePerFile(envelope errorEnvelope) *NormalizedError {
	var items []fileViolations
	if json.Unmarshal(envelope.ValidationErrors, &items) != nil || len(items) == 0 {
		return nil
	}
	// A flat string list also fails to decode into structs, so reaching
	// here with filenames means the per-file shape.
	details := make([]string, 0, len(items))
	for _, item := range items {
		if item.File == "" && len(item.Errors) == 0 {
			return nil
		}
		details = append(details, item.File+": "+strings.Join(item.Errors, ", "))
	}
	return &NormalizedError{
		Headline: FilesFailedHeadline,
		Details:  details,
	}
}

func normalizeFlatList(envelope errorEnvelope) *NormalizedError {
	var messages []string
	if json.Unmarshal(envelope.ValidationErrors, &messages) != nil || len(messages) == 0 {
		return nil
	}
	headline := envelope.Error
	if headline == "" {
		headline = GenericFailureHeadline
	}
	return &NormalizedError{
		Headline: headline,
		Details:  messages,
	}
}

// singleMessage covers the single-string shape: the message is both the
// headline and the only detail line.
func singleMessage(message, headline string) *NormalizedError {
	if headline == "" {
		headline = GenericFailureHeadline
	}
	return &NormalizedError{
		Headline: headline,
		Details:  []string{message},
	}
}

func transportError(text string) *NormalizedError {
	if text == "" {
		text = GenericFailureHeadline
	}
	return &NormalizedError{
		Headline: text,
		Details:  []string{},
	}
}

package internal

import (
	"errors"
	"strings"
	"testing"
)

func TestRequestError(t *testing.T) {
	originalErr := errors.New("connection refused")
	err := &RequestError{
		Op:       "list workspaces",
		Endpoint: "/workspaces",
		Err:      originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "request error") {
		t.Errorf("RequestError.Error() should contain 'request error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "/workspaces") {
		t.Errorf("RequestError.Error() should contain endpoint, got: %q", errorMsg)
	}
	if strings.Contains(errorMsg, "status") {
		t.Errorf("RequestError.Error() should omit zero status, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("RequestError.Unwrap() should return original error")
	}
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Error("RequestError should match ErrServiceUnavailable")
	}
	if errors.Is(err, ErrMalformedResponse) {
		t.Error("RequestError should not match ErrMalformedResponse")
	}

	withStatus := &RequestError{Op: "delete thread", Endpoint: "/workspace/a/thread/b", Status: 500, Err: originalErr}
	if !strings.Contains(withStatus.Error(), "status 500") {
		t.Errorf("RequestError.Error() should contain status, got: %q", withStatus.Error())
	}
}

func TestDecodeError(t *testing.T) {
	originalErr := errors.New("invalid JSON")
	err := &DecodeError{
		Source: "document metadata",
		Key:    "custom-documents/a.json",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "decode error") {
		t.Errorf("DecodeError.Error() should contain 'decode error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "document metadata") {
		t.Errorf("DecodeError.Error() should contain source, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("DecodeError.Unwrap() should return original error")
	}
	if !errors.Is(err, ErrMalformedResponse) {
		t.Error("DecodeError should match ErrMalformedResponse")
	}
}

func TestUploadError(t *testing.T) {
	cause := &RequestError{Op: "index document", Endpoint: "/workspace/ws/update-embeddings", Status: 500, Err: errors.New("boom")}
	err := &UploadError{Phase: "index", Location: "custom-documents/a.json", Err: cause}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "[index]") {
		t.Errorf("UploadError.Error() should contain phase, got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "custom-documents/a.json") {
		t.Errorf("UploadError.Error() should contain location, got: %q", errorMsg)
	}
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Error("UploadError should unwrap to the request failure")
	}

	var upErr *UploadError
	if !errors.As(err, &upErr) || upErr.Phase != "index" {
		t.Error("errors.As should recover the UploadError")
	}
}

func TestExportError(t *testing.T) {
	originalErr := errors.New("write failed")
	err := &ExportError{
		Format: "jsonl",
		Path:   "/output/file.jsonl",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "export error") {
		t.Errorf("ExportError.Error() should contain 'export error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "jsonl") {
		t.Errorf("ExportError.Error() should contain format, got: %q", errorMsg)
	}

	if !errors.Is(err, originalErr) {
		t.Error("ExportError.Unwrap() should return original error")
	}
}

package kb

import (
	"encoding/json"
	"fmt"

	"github.com/iksnae/code-assistant/internal"
)

// RawWorkspace is the detail record returned by GET /workspace/{slug}
type RawWorkspace struct {
	Documents []RawDocument `json:"documents"`
	Threads   []RawThread   `json:"threads"`
}

// RawDocument is a document record as stored by the knowledge base.
// Metadata is itself a serialized JSON object.
type RawDocument struct {
	DocPath  string `json:"docpath"`
	Metadata string `json:"metadata"`
}

// DocumentMetadata is the decoded form of RawDocument.Metadata
type DocumentMetadata struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Published string `json:"published"`
}

// RawThread is a thread record of a workspace
type RawThread struct {
	Slug string `json:"slug"`
}

type workspacesResponse struct {
	Workspaces []struct {
		Name string `json:"name"`
	} `json:"workspaces"`
}

type workspaceResponse struct {
	Workspace []RawWorkspace `json:"workspace"`
}

type uploadResponse struct {
	Documents []struct {
		Location string `json:"location"`
	} `json:"documents"`
}

type newThreadResponse struct {
	Thread  *RawThread `json:"thread"`
	Message *string    `json:"message"`
}

// conflict reports whether the remote rejected the thread name.
// The service signals a collision with a non-empty message, not with the HTTP status.
func (r newThreadResponse) conflict() bool {
	return r.Message != nil && *r.Message != ""
}

type historyResponse struct {
	History []struct {
		Content string `json:"content"`
	} `json:"history"`
}

type chatResponse struct {
	TextResponse string `json:"textResponse"`
}

// ParseDocument decodes the embedded metadata of a document record
func ParseDocument(raw RawDocument) (internal.Document, error) {
	if raw.Metadata == "" {
		return internal.Document{}, &internal.DecodeError{
			Source: "document metadata",
			Key:    raw.DocPath,
			Err:    fmt.Errorf("metadata is empty"),
		}
	}

	var meta DocumentMetadata
	if err := json.Unmarshal([]byte(raw.Metadata), &meta); err != nil {
		return internal.Document{}, &internal.DecodeError{
			Source: "document metadata",
			Key:    raw.DocPath,
			Err:    err,
		}
	}

	return internal.Document{
		Path:        raw.DocPath,
		ID:          meta.ID,
		Title:       meta.Title,
		PublishedAt: meta.Published,
	}, nil
}

// ParseDocuments decodes every document record. A record whose metadata cannot be
// decoded is dropped and its error returned alongside; the others keep their order.
func ParseDocuments(raws []RawDocument) ([]internal.Document, []error) {
	docs := make([]internal.Document, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		doc, err := ParseDocument(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, errs
}

package testutil

import (
	"encoding/json"
	"testing"
)

// DocumentMetadata builds the serialized metadata string the knowledge base stores per document
func DocumentMetadata(t *testing.T, id, title, published string) string {
	t.Helper()
	data, err := json.Marshal(map[string]string{
		"id":        id,
		"title":     title,
		"published": published,
	})
	if err != nil {
		t.Fatalf("Failed to marshal metadata: %v", err)
	}
	return string(data)
}

// SampleWorkspace returns a workspace with two valid documents, one document with
// broken metadata between them, and a thread with an alternating history
func SampleWorkspace(t *testing.T, name string) *FakeWorkspace {
	t.Helper()
	return &FakeWorkspace{
		Name: name,
		Documents: []FakeDocument{
			{DocPath: "custom-documents/a.json", Metadata: DocumentMetadata(t, "a", "Alpha", "2024-01-01")},
			{DocPath: "custom-documents/broken.json", Metadata: "{not json"},
			{DocPath: "custom-documents/b.json", Metadata: DocumentMetadata(t, "b", "Beta", "2024-02-01")},
		},
		Threads: []string{"general"},
		History: map[string][]string{
			"general": {"What is Go?", "A programming language.", "Who made it?", "Google."},
		},
	}
}

package view

import (
	"encoding/json"
	"testing"

	"github.com/sabio/subsurface-console/pkg/platform"
)

func TestNewDocument(t *testing.T) {
	var status platform.StatusSnapshot
	if err := json.Unmarshal([]byte(`{"uptime_hours": 1.5, "extra": true}`), &status); err != nil {
		t.Fatal(err)
	}

	doc := NewDocument("p1", State{
		Files: []platform.FileEntry{
			platform.NewFileEntry(`"a"`),
			platform.NewFileEntry(`{"name": "c", "size": 3}`),
		},
		Status:   &status,
		Query:    "q",
		Response: "r",
		Loading:  true,
	})

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"id":"p1","files":[{"display_name":"a","entry":"a"},{"display_name":"c","entry":{"name":"c","size":3}}],` +
		`"status":{"uptime_hours":1.5,"extra":true},"query":"q","response":"r","loading":true}`
	if string(data) != want {
		t.Errorf("Marshal() = %s\nwant %s", data, want)
	}
}

func TestNewDocumentEmpty(t *testing.T) {
	data, err := json.Marshal(NewDocument("p2", State{}))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"id":"p2","files":[],"status":null,"query":"","response":"","loading":false}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

package notification

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEnsureDefaults(t *testing.T) {
	r := &Record{}
	r.EnsureDefaults()

	if r.Actions == nil {
		t.Error("Actions is nil, want empty slice")
	}
	if r.InboxLines == nil {
		t.Error("InboxLines is nil, want empty slice")
	}
	if r.Messages == nil {
		t.Error("Messages is nil, want empty slice")
	}
	if r.Category != CategoryUnknown {
		t.Errorf("Category = %q, want %q", r.Category, CategoryUnknown)
	}
	if r.Style != StyleDefault {
		t.Errorf("Style = %q, want %q", r.Style, StyleDefault)
	}
}

func TestEnsureDefaults_PreservesValues(t *testing.T) {
	r := &Record{
		Category:   "msg",
		Style:      StyleBigText,
		InboxLines: []string{"a"},
	}
	r.EnsureDefaults()

	if r.Category != "msg" {
		t.Errorf("Category = %q, want msg", r.Category)
	}
	if r.Style != StyleBigText {
		t.Errorf("Style = %q, want %q", r.Style, StyleBigText)
	}
	if len(r.InboxLines) != 1 {
		t.Errorf("len(InboxLines) = %d, want 1", len(r.InboxLines))
	}
}

func TestRecordJSON_EmptyCollectionsNotNull(t *testing.T) {
	r := &Record{ID: "x", PostTime: 1}
	r.EnsureDefaults()

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(data)

	for _, want := range []string{`"actions":[]`, `"inboxLines":[]`, `"messages":[]`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON missing %s: %s", want, s)
		}
	}
	if strings.Contains(s, `"progress"`) {
		t.Errorf("JSON contains progress for record without one: %s", s)
	}
}

func TestRecordJSON_ProgressPresentWhenSet(t *testing.T) {
	r := &Record{ID: "x", Progress: &Progress{Current: 3, Max: 10}}
	r.EnsureDefaults()

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"progress":{"current":3,"max":10,"indeterminate":false}`) {
		t.Errorf("JSON progress wrong: %s", data)
	}
}

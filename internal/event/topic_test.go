package event

import "testing"

func TestTopicSegments(t *testing.T) {
	if got := Topic("document.changed").Segments(); len(got) != 2 || got[0] != "document" {
		t.Errorf("Segments = %v", got)
	}
	if got := Topic("").Segments(); got != nil {
		t.Errorf("empty topic Segments = %v, want nil", got)
	}
}

func TestTopicIsValid(t *testing.T) {
	tests := []struct {
		topic Topic
		want  bool
	}{
		{"document.changed", true},
		{"a", true},
		{"plugin.autolink.error", true},
		{"", false},
		{".leading", false},
		{"trailing.", false},
		{"double..dot", false},
	}
	for _, tt := range tests {
		if got := tt.topic.IsValid(); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern Topic
		topic   Topic
		want    bool
	}{
		{"document.changed", "document.changed", true},
		{"document.changed", "document.replaced", false},
		{"document.*", "document.changed", true},
		{"document.*", "document", false},
		{"document.*", "document.a.b", false},
		{"*.changed", "document.changed", true},
		{"*.changed", "selection.changed", true},
		{"**", "anything.at.all", true},
		{"history.**", "history.undo", true},
		{"history.**", "history", true},
		{"history.**", "history.a.b.c", true},
		{"history.**", "document.changed", false},
		{"**.error", "plugin.autolink.error", true},
		{"**.error", "error", true},
		{"**.error", "plugin.loaded", false},
	}
	for _, tt := range tests {
		if got := Match(tt.pattern, tt.topic); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
		}
	}
}

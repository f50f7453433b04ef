package task

import "testing"

func TestNextVoiceNoteLabel(t *testing.T) {
	tests := []struct {
		name  string
		tasks []Task
		want  string
	}{
		{"empty", nil, "recording.01"},
		{"text only", []Task{{Text: "recording.01"}}, "recording.01"},
		{"labeled voice notes", []Task{
			{Text: "recording.01", AudioURI: "a"},
			{Text: "renamed", AudioURI: "b"},
			{Text: "recording.02", AudioURI: "c"},
		}, "recording.03"},
	}
	for _, tt := range tests {
		if got := NextVoiceNoteLabel(tt.tasks); got != tt.want {
			t.Fatalf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"", ColorWhite, false},
		{"Blue", ColorBlue, false},
		{" pink ", ColorPink, false},
		{"teal", "", true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseColor(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseColor(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
	for _, c := range Palette() {
		if c.Hex() == "" {
			t.Fatalf("expected hex for %q", c)
		}
	}
}

package ui

import "testing"

func TestPrefixLength(t *testing.T) {
	tests := []struct {
		name   string
		length map[string]int
		id     string
		want   int
	}{
		{
			name:   "case insensitive lookup",
			length: map[string]int{"abc123": 4},
			id:     "ABC123",
			want:   4,
		},
		{
			name:   "missing id",
			length: map[string]int{"abc123": 4},
			id:     "",
			want:   0,
		},
		{
			name:   "nil map",
			length: nil,
			id:     "ABC123",
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrefixLength(tt.length, tt.id); got != tt.want {
				t.Fatalf("PrefixLength() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHighlightIDKeepsText(t *testing.T) {
	got := HighlightID("abc123", 3)
	if width := displayWidth(got); width != 6 {
		t.Fatalf("expected visible width 6, got %d in %q", width, got)
	}
	if HighlightID("abc", 0) != "abc" {
		t.Fatal("expected zero prefix to leave id unchanged")
	}
	if HighlightID("abc", 9) != "abc" {
		t.Fatal("expected oversized prefix to leave id unchanged")
	}
}

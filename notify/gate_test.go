package notify

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/amonks/taskmate/kvstore"
)

type scriptedPrompter struct {
	answer bool
	err    error
	asked  int
}

func (p *scriptedPrompter) Confirm(message string) (bool, error) {
	p.asked++
	return p.answer, p.err
}

func interactive() bool { return true }

func TestPromptGate_AsksOnceAndRemembers(t *testing.T) {
	store := kvstore.NewMemoryStore()
	prompter := &scriptedPrompter{answer: true}
	gate := &PromptGate{Store: store, Prompter: prompter, Interactive: interactive}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		granted, err := gate.EnsurePermission(ctx)
		if err != nil || !granted {
			t.Fatalf("call %d: expected granted, got %v err=%v", i, granted, err)
		}
	}
	if prompter.asked != 1 {
		t.Fatalf("expected one prompt, got %d", prompter.asked)
	}
	if p, _ := LoadPermission(ctx, store); p != PermissionGranted {
		t.Fatalf("expected granted remembered, got %q", p)
	}
}

func TestPromptGate_RemembersDenial(t *testing.T) {
	store := kvstore.NewMemoryStore()
	prompter := &scriptedPrompter{answer: false}
	gate := &PromptGate{Store: store, Prompter: prompter, Interactive: interactive}
	ctx := context.Background()

	gate.EnsurePermission(ctx)
	granted, err := gate.EnsurePermission(ctx)
	if err != nil || granted {
		t.Fatalf("expected denied, got %v err=%v", granted, err)
	}
	if prompter.asked != 1 {
		t.Fatalf("expected denial remembered, asked %d times", prompter.asked)
	}
}

func TestPromptGate_NonInteractiveDeniesWithoutRemembering(t *testing.T) {
	store := kvstore.NewMemoryStore()
	prompter := &scriptedPrompter{answer: true}
	gate := &PromptGate{Store: store, Prompter: prompter, Interactive: func() bool { return false }}

	granted, err := gate.EnsurePermission(context.Background())
	if err != nil || granted {
		t.Fatalf("expected denied, got %v err=%v", granted, err)
	}
	if prompter.asked != 0 {
		t.Fatalf("expected no prompt")
	}
	if store.Writes(PermissionKey) != 0 {
		t.Fatalf("expected nothing remembered")
	}
}

func TestPromptGate_PresetPermission(t *testing.T) {
	store := kvstore.NewMemoryStore()
	ctx := context.Background()
	if err := SavePermission(ctx, store, PermissionGranted); err != nil {
		t.Fatalf("save: %v", err)
	}
	gate := &PromptGate{Store: store}
	if granted, err := gate.EnsurePermission(ctx); err != nil || !granted {
		t.Fatalf("expected preset grant honored, got %v err=%v", granted, err)
	}
}

func TestPromptGate_PromptError(t *testing.T) {
	store := kvstore.NewMemoryStore()
	gate := &PromptGate{Store: store, Prompter: &scriptedPrompter{err: io.EOF}, Interactive: interactive}
	if _, err := gate.EnsurePermission(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected prompt error, got %v", err)
	}
}

func TestStdioPrompter(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Yes\n", true},
		{"n\n", false},
		{"\n", false},
		{"yes", true},
	}
	for _, tt := range tests {
		var out strings.Builder
		got, err := StdioPrompter{In: strings.NewReader(tt.input), Out: &out}.Confirm("Continue?")
		if err != nil {
			t.Fatalf("Confirm(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Fatalf("Confirm(%q): expected %v, got %v", tt.input, tt.want, got)
		}
		if out.String() != "Continue? [y/n]: " {
			t.Fatalf("expected prompt written, got %q", out.String())
		}
	}
}

func TestPromptGate_Terminal(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	store := kvstore.NewMemoryStore()
	gate := &PromptGate{
		Store:       store,
		Prompter:    StdioPrompter{In: tty, Out: tty},
		Interactive: func() bool { return term.IsTerminal(int(tty.Fd())) },
	}

	go func() {
		buf := make([]byte, 256)
		var seen strings.Builder
		for !strings.Contains(seen.String(), "[y/n]") {
			n, err := ptmx.Read(buf)
			if err != nil {
				return
			}
			seen.Write(buf[:n])
		}
		ptmx.Write([]byte("y\n"))
		io.Copy(io.Discard, ptmx)
	}()

	type result struct {
		granted bool
		err     error
	}
	done := make(chan result, 1)
	go func() {
		granted, err := gate.EnsurePermission(context.Background())
		done <- result{granted, err}
	}()

	select {
	case r := <-done:
		if r.err != nil || !r.granted {
			t.Fatalf("expected granted from terminal, got %v err=%v", r.granted, r.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for prompt answer")
	}
	if p, _ := LoadPermission(context.Background(), store); p != PermissionGranted {
		t.Fatalf("expected grant remembered, got %q", p)
	}
}

func TestParsePermission(t *testing.T) {
	tests := []struct {
		in      string
		want    Permission
		wantErr bool
	}{
		{"", PermissionUndecided, false},
		{"prompt", PermissionUndecided, false},
		{"Granted", PermissionGranted, false},
		{"denied", PermissionDenied, false},
		{"maybe", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePermission(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParsePermission(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("ParsePermission(%q): expected %q, got %q err=%v", tt.in, tt.want, got, err)
		}
	}
}

package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/amonks/taskmate/kvstore"
	"github.com/amonks/taskmate/reminder"
)

// PermissionKey is the store key remembering the user's answer.
const PermissionKey = "notificationPermission"

// Permission is a remembered notification permission decision.
type Permission string

const (
	PermissionUndecided Permission = ""
	PermissionGranted   Permission = "granted"
	PermissionDenied    Permission = "denied"
)

// Prompter is used to ask the user for confirmation.
type Prompter interface {
	// Confirm asks the user a yes/no question and returns true if they say yes.
	Confirm(message string) (bool, error)
}

// StdioPrompter implements Prompter using a reader and writer, normally
// the process's stdin and stderr.
type StdioPrompter struct {
	In  io.Reader
	Out io.Writer
}

// Confirm asks a yes/no question and reads one line of response.
func (p StdioPrompter) Confirm(message string) (bool, error) {
	fmt.Fprintf(p.Out, "%s [y/n]: ", message)
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && line == "" {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// PromptGate is a reminder.PermissionGate that asks once and remembers
// the answer in the store.
type PromptGate struct {
	Store    kvstore.Store
	Prompter Prompter

	// Interactive reports whether the user can be asked. When it is nil
	// or returns false, an undecided permission counts as denied and is
	// not remembered.
	Interactive func() bool

	Logger *slog.Logger
}

var _ reminder.PermissionGate = (*PromptGate)(nil)

// PermissionPrompt is the question asked by PromptGate.
const PermissionPrompt = "Allow taskmate to send reminder notifications?"

// EnsurePermission implements reminder.PermissionGate.
func (g *PromptGate) EnsurePermission(ctx context.Context) (bool, error) {
	current, err := LoadPermission(ctx, g.Store)
	if err != nil {
		return false, err
	}
	switch current {
	case PermissionGranted:
		return true, nil
	case PermissionDenied:
		return false, nil
	}

	if g.Prompter == nil || g.Interactive == nil || !g.Interactive() {
		return false, nil
	}
	yes, err := g.Prompter.Confirm(PermissionPrompt)
	if err != nil {
		return false, fmt.Errorf("ask notification permission: %w", err)
	}
	decision := PermissionDenied
	if yes {
		decision = PermissionGranted
	}
	if err := SavePermission(ctx, g.Store, decision); err != nil {
		g.logger().Warn("notification permission not remembered", "error", err)
	}
	return yes, nil
}

func (g *PromptGate) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return g.Logger
}

// LoadPermission reads the remembered decision.
func LoadPermission(ctx context.Context, store kvstore.Store) (Permission, error) {
	data, found, err := store.Get(ctx, PermissionKey)
	if err != nil {
		return PermissionUndecided, fmt.Errorf("read notification permission: %w", err)
	}
	if !found {
		return PermissionUndecided, nil
	}
	var p Permission
	if err := json.Unmarshal(data, &p); err != nil {
		return PermissionUndecided, fmt.Errorf("decode notification permission: %w", err)
	}
	return p, nil
}

// SavePermission remembers a decision. PermissionUndecided forgets it.
func SavePermission(ctx context.Context, store kvstore.Store, p Permission) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, PermissionKey, data); err != nil {
		return fmt.Errorf("save notification permission: %w", err)
	}
	return nil
}

// ParsePermission parses a configured permission policy. "prompt" and the
// empty string mean undecided.
func ParsePermission(value string) (Permission, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "prompt":
		return PermissionUndecided, nil
	case string(PermissionGranted):
		return PermissionGranted, nil
	case string(PermissionDenied):
		return PermissionDenied, nil
	default:
		return "", fmt.Errorf("invalid permission %q: must be prompt, granted, or denied", value)
	}
}

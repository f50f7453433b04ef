package notify

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// CommandDispatcher runs a user-configured script for each notification.
// The script receives TASKMATE_TITLE, TASKMATE_BODY, and TASKMATE_FIRE_AT
// in its environment.
type CommandDispatcher struct {
	Script string

	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// Dispatch implements Dispatcher.
func (d *CommandDispatcher) Dispatch(ctx context.Context, entry Entry) error {
	env := append(os.Environ(),
		"TASKMATE_TITLE="+entry.Title,
		"TASKMATE_BODY="+entry.Body,
		"TASKMATE_FIRE_AT="+entry.FireAt.Format(time.RFC3339),
	)
	return RunScript(ctx, d.Dir, d.Script, env)
}

// RunScript executes a script in the given directory.
// If the script starts with a shebang (#!), that interpreter is used.
// Otherwise, the script is run with /bin/sh.
func RunScript(ctx context.Context, dir, script string, env []string) error {
	script = strings.TrimSpace(script)
	if script == "" {
		return nil
	}

	interpreter := "/bin/sh"
	body := script
	if rest, ok := strings.CutPrefix(script, "#!"); ok {
		line, after, _ := strings.Cut(rest, "\n")
		interpreter = strings.TrimSpace(line)
		body = after
	}

	// e.g. "/usr/bin/env python3" or "/bin/bash -e"
	parts := strings.Fields(interpreter)
	if len(parts) == 0 {
		return fmt.Errorf("empty interpreter in shebang")
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	cmd.Stdin = strings.NewReader(body)
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("notify command: %w: %s", err, msg)
		}
		return fmt.Errorf("notify command: %w", err)
	}
	return nil
}

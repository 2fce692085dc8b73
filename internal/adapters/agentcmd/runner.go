package agentcmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// Runner implements ports.Source by running an external renderer agent and
// capturing its standard output. The location is the command line.
type Runner struct {
	shell   string
	timeout time.Duration
}

// NewRunner creates a new Runner. Commands run through sh -c.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Runner{shell: "sh", timeout: timeout}
}

// Open runs the command and returns everything it wrote to stdout.
func (r *Runner) Open(ctx context.Context, command string) (io.ReadCloser, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("agent command is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.shell, "-c", command)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("agent command failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	if strings.TrimSpace(out.String()) == "" {
		return nil, fmt.Errorf("agent command produced no output")
	}

	return io.NopCloser(&out), nil
}

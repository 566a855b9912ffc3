package embed

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// localEmbedder spawns (or attaches to an already-running) local embedding
// server process and speaks the same HTTP protocol as remoteEmbedder
// against 127.0.0.1. Grounded in the teacher's
// internal/embed/client/local.go health-check/start loop; unlike the
// teacher, this tier assumes a pre-built server binary rather than bundling
// a Python runtime (see DESIGN.md for why go-embed-python was dropped).
type localEmbedder struct {
	binaryPath string
	port       int
	model      string
	dim        int
	cmd        *exec.Cmd
	client     *http.Client
	remote     *remoteEmbedder
}

func newLocalEmbedder(binaryPath string, port int, model string, dim int) *localEmbedder {
	endpoint := fmt.Sprintf("http://127.0.0.1:%d", port)
	return &localEmbedder{
		binaryPath: binaryPath,
		port:       port,
		model:      model,
		dim:        dim,
		client:     &http.Client{Timeout: 30 * time.Second},
		remote:     newRemoteEmbedder(endpoint, model, dim),
	}
}

func (l *localEmbedder) Dimension() int { return l.dim }

func (l *localEmbedder) ensureRunning(ctx context.Context) error {
	if l.isHealthy() {
		return nil
	}
	if l.binaryPath == "" {
		return fmt.Errorf("local embedding server not running and no binary configured to start one")
	}

	l.cmd = exec.CommandContext(ctx, l.binaryPath)
	l.cmd.Stdout = os.Stdout
	l.cmd.Stderr = os.Stderr
	if err := l.cmd.Start(); err != nil {
		return fmt.Errorf("start local embedding server: %w", err)
	}

	return l.waitForHealthy(ctx, 60*time.Second)
}

func (l *localEmbedder) isHealthy() bool {
	return probeRemote(l.remote.endpoint)
}

func (l *localEmbedder) waitForHealthy(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for local embedding server to become healthy")
		case <-ticker.C:
			if l.isHealthy() {
				return nil
			}
		}
	}
}

func (l *localEmbedder) Embed(ctx context.Context, text string, mode Mode) ([]float32, error) {
	if err := l.ensureRunning(ctx); err != nil {
		return nil, err
	}
	return l.remote.Embed(ctx, text, mode)
}

func (l *localEmbedder) EmbedBatch(ctx context.Context, texts []string, mode Mode) ([][]float32, error) {
	if err := l.ensureRunning(ctx); err != nil {
		return nil, err
	}
	return l.remote.EmbedBatch(ctx, texts, mode)
}

func (l *localEmbedder) WarmUp(ctx context.Context) error {
	return l.ensureRunning(ctx)
}

func (l *localEmbedder) Status() Status {
	return Status{Method: MethodLocal, Model: l.model, Endpoint: l.remote.endpoint}
}

// Close attempts a graceful shutdown (SIGTERM) of a server process this
// tier started itself, falling back to SIGKILL after 5s.
func (l *localEmbedder) Close() error {
	if l.cmd == nil || l.cmd.Process == nil {
		return nil
	}

	if err := l.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- l.cmd.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return l.cmd.Process.Kill()
	}
}

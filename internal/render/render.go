package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"reelforge/internal/config"
	"reelforge/internal/quality"
)

var commandContext = exec.CommandContext

// Client defines renderer behaviour.
type Client interface {
	Render(ctx context.Context, scriptPath, mediaDir string, tier quality.Tier) error
}

// Error carries the diagnostic detail of a failed renderer subprocess.
type Error struct {
	ExitCode int
	Stderr   string
}

func (e *Error) Error() string {
	detail := strings.TrimSpace(e.Stderr)
	if detail == "" {
		detail = "no stderr output"
	}
	return fmt.Sprintf("renderer exited with code %d: %s", e.ExitCode, detail)
}

// CLI wraps the external renderer invocation.
type CLI struct {
	command      []string
	sceneName    string
	outputFormat string
}

// Option configures the CLI client.
type Option func(*CLI)

// WithCommand overrides the renderer argv prefix (binary plus module args).
func WithCommand(command []string) Option {
	return func(c *CLI) {
		if len(command) > 0 {
			c.command = append([]string(nil), command...)
		}
	}
}

// WithSceneName overrides the rendered scene class name.
func WithSceneName(name string) Option {
	return func(c *CLI) {
		if name != "" {
			c.sceneName = name
		}
	}
}

// WithOutputFormat overrides the renderer output format.
func WithOutputFormat(format string) Option {
	return func(c *CLI) {
		if format != "" {
			c.outputFormat = format
		}
	}
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{
		command:      []string{"python3", "-m", "manim"},
		sceneName:    "GeneratedScene",
		outputFormat: "mp4",
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// FromConfig builds a CLI client from application configuration.
func FromConfig(cfg *config.Config) *CLI {
	return NewCLI(
		WithCommand(cfg.RendererCommand()),
		WithSceneName(cfg.Renderer.SceneName),
		WithOutputFormat(cfg.Renderer.OutputFormat),
	)
}

// Render launches the renderer against the generated script and blocks until
// the subprocess exits. Both output streams are captured in full before the
// exit is classified; a non-zero exit yields *Error with the stderr text.
func (c *CLI) Render(ctx context.Context, scriptPath, mediaDir string, tier quality.Tier) error {
	if scriptPath == "" {
		return errors.New("script path required")
	}
	if mediaDir == "" {
		return errors.New("media directory required")
	}

	args := append([]string(nil), c.command[1:]...)
	args = append(args,
		scriptPath,
		c.sceneName,
		tier.Flag(),
		"--format", c.outputFormat,
		"--media_dir", mediaDir,
	)

	var stdout, stderr bytes.Buffer
	cmd := commandContext(ctx, c.command[0], args...) //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Error{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return fmt.Errorf("start renderer: %w", err)
	}
	return nil
}

var _ Client = (*CLI)(nil)

// SceneName reports the scene class the client renders. Artifact discovery
// needs it to predict the output filename.
func (c *CLI) SceneName() string { return c.sceneName }

// OutputFormat reports the configured renderer output format.
func (c *CLI) OutputFormat() string { return c.outputFormat }

// ScriptStem returns the renderer's per-script output directory component:
// the script filename without its extension.
func ScriptStem(scriptPath string) string {
	base := filepath.Base(scriptPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

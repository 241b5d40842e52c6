package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"reelforge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfgVal.Paths.VideosDir = filepath.Join(base, "videos")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Paths.VideoURLBase = "/videos/"
	cfgVal.Renderer.MinFreeGiB = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// RendererBehavior selects how a stub renderer script acts when invoked.
type RendererBehavior string

const (
	// RendererSucceeds writes the artifact at the standard nested media path.
	RendererSucceeds RendererBehavior = "succeeds"
	// RendererStraysArtifact writes the artifact at a nonstandard location
	// under the media directory.
	RendererStraysArtifact RendererBehavior = "strays"
	// RendererFails exits nonzero with diagnostic output on stderr.
	RendererFails RendererBehavior = "fails"
	// RendererSilent exits zero without producing any artifact.
	RendererSilent RendererBehavior = "silent"
)

// WithStubRenderer writes a shell script mimicking the renderer's
// command-line contract and points the config's renderer binary at it.
// The stub receives the script path, scene name, quality flag, --format,
// and --media_dir arguments exactly as the real renderer would.
func WithStubRenderer(behavior RendererBehavior) ConfigOption {
	return func(b *configBuilder) {
		b.t.Helper()

		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "stub-renderer")
		if err := os.WriteFile(target, []byte(stubRendererScript(behavior)), 0o755); err != nil {
			b.t.Fatalf("write stub renderer: %v", err)
		}
		b.cfg.Renderer.Binary = target
		b.cfg.Renderer.ModuleArgs = nil
	}
}

// WithAPIBind overrides the daemon bind address on the test config.
func WithAPIBind(bind string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIBind = bind
	}
}

// WithLLM seeds provider connection settings on the test config.
func WithLLM(apiKey, baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = apiKey
		b.cfg.LLM.BaseURL = baseURL
	}
}

func stubRendererScript(behavior RendererBehavior) string {
	header := `#!/bin/sh
script="$1"
scene="$2"
flag="$3"
media="$7"
stem=$(basename "$script" .py)
case "$flag" in
  -ql) outdir=480p15 ;;
  -qm) outdir=720p30 ;;
  *) outdir=1080p60 ;;
esac
`
	switch behavior {
	case RendererStraysArtifact:
		return header + `mkdir -p "$media/videos/$stem/partial_movie_files"
printf 'stray video bytes' > "$media/videos/$stem/partial_movie_files/$scene.mp4"
exit 0
`
	case RendererFails:
		return header + `echo "Traceback (most recent call last):" >&2
echo "NameError: name 'Sqare' is not defined" >&2
exit 1
`
	case RendererSilent:
		return header + `exit 0
`
	default:
		return header + `mkdir -p "$media/videos/$stem/$outdir"
printf 'rendered video bytes' > "$media/videos/$stem/$outdir/$scene.mp4"
exit 0
`
	}
}

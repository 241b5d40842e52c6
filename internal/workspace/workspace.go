package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"reelforge/internal/logging"
)

// scriptFileName is the generated source file materialized into each job
// workspace before the renderer runs.
const scriptFileName = "scene_script.py"

// mediaDirName is the renderer output subtree inside a job workspace.
const mediaDirName = "media"

// Manager allocates isolated per-job working directories under a base path.
type Manager struct {
	baseDir string
}

// NewManager constructs a workspace manager rooted at baseDir.
func NewManager(baseDir string) *Manager {
	return &Manager{baseDir: baseDir}
}

// Workspace is one job's ephemeral directory tree. It exists only for the
// duration of a render and is removed by Release regardless of outcome.
type Workspace struct {
	ID       string
	Dir      string
	MediaDir string

	released bool
}

// Acquire creates a uniquely named job directory plus its media output
// subdirectory. Both creations are idempotent.
func (m *Manager) Acquire() (*Workspace, error) {
	if m == nil || m.baseDir == "" {
		return nil, errors.New("workspace base directory not configured")
	}

	id := uuid.NewString()
	dir := filepath.Join(m.baseDir, id)
	mediaDir := filepath.Join(dir, mediaDirName)
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %s: %w", id, err)
	}

	return &Workspace{ID: id, Dir: dir, MediaDir: mediaDir}, nil
}

// ScriptPath returns the location the generated source is written to.
func (w *Workspace) ScriptPath() string {
	return filepath.Join(w.Dir, scriptFileName)
}

// WriteScript materializes generated source text into the workspace.
func (w *Workspace) WriteScript(source string) error {
	if err := os.WriteFile(w.ScriptPath(), []byte(source), 0o644); err != nil {
		return fmt.Errorf("write scene script: %w", err)
	}
	return nil
}

// Release removes the media subtree and the scene script, then attempts to
// remove the job directory itself. A non-empty job directory is left in place
// without error; any other cleanup failure is logged, never propagated.
// Release is idempotent so callers can defer it unconditionally.
func (w *Workspace) Release(logger *slog.Logger) {
	if w == nil || w.released {
		return
	}
	w.released = true
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(w.MediaDir); err != nil {
		logger.Warn("workspace media cleanup failed",
			logging.String(logging.FieldJobID, w.ID),
			logging.Error(err),
		)
	}
	if err := os.Remove(w.ScriptPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("workspace script cleanup failed",
			logging.String(logging.FieldJobID, w.ID),
			logging.Error(err),
		)
	}
	if err := os.Remove(w.Dir); err != nil {
		if isDirNotEmpty(err) || errors.Is(err, fs.ErrNotExist) {
			return
		}
		logger.Warn("workspace directory cleanup failed",
			logging.String(logging.FieldJobID, w.ID),
			logging.Error(err),
		)
	}
}

func isDirNotEmpty(err error) bool {
	return errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST)
}

package render

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"reelforge/internal/quality"
)

// ErrArtifactNotFound reports a render that exited cleanly but produced no
// matching output file. Distinct from *Error so callers can tell "renderer
// failed" apart from "renderer lied about succeeding".
var ErrArtifactNotFound = errors.New("rendered video file not found")

// FindArtifact locates the rendered video under mediaDir. The renderer's
// nested layout (videos/<script-stem>/<quality-dir>/<scene>.<format>) is
// checked first; layouts have drifted across renderer releases, so a
// recursive search for the expected filename backs it up.
func FindArtifact(mediaDir, scriptPath string, tier quality.Tier, sceneName, format string) (string, error) {
	fileName := sceneName + "." + format

	expected := filepath.Join(mediaDir, "videos", ScriptStem(scriptPath), tier.OutputDirName(), fileName)
	if info, err := os.Stat(expected); err == nil && !info.IsDir() {
		return expected, nil
	}

	var found string
	err := filepath.WalkDir(mediaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == fileName {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", ErrArtifactNotFound
	}
	return found, nil
}

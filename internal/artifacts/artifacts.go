// Package artifacts publishes rendered videos into the served library
// directory and maps them to public URLs.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelforge/internal/config"
	"reelforge/internal/fileutil"
	"reelforge/internal/textutil"
)

// Store copies finished render artifacts into the videos directory and
// reports the URL clients fetch them from.
type Store struct {
	dir       string
	urlPrefix string
}

// NewStore builds a Store from config paths.
func NewStore(cfg *config.Config) *Store {
	prefix := cfg.Paths.VideoURLBase
	if prefix == "" {
		prefix = "/videos/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{dir: cfg.Paths.VideosDir, urlPrefix: prefix}
}

// Dir returns the directory published artifacts land in.
func (s *Store) Dir() string {
	return s.dir
}

// Publish copies localPath into the videos directory under name and returns
// the public URL. The copy is verified before the URL is handed out so a
// partially written artifact never becomes reachable.
func (s *Store) Publish(localPath, name string) (string, error) {
	name = textutil.SanitizeFileName(name)
	if name == "" {
		return "", fmt.Errorf("artifact name must not be empty")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create videos directory: %w", err)
	}
	dst := filepath.Join(s.dir, name)
	if err := fileutil.CopyVerified(localPath, dst); err != nil {
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	return s.urlPrefix + name, nil
}

// Remove deletes a previously published artifact by name. Missing files are
// not an error.
func (s *Store) Remove(name string) error {
	name = textutil.SanitizeFileName(name)
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants after normalization.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.WorkspaceDir == "" {
		problems = append(problems, "paths.workspace_dir must be set")
	}
	if c.Paths.VideosDir == "" {
		problems = append(problems, "paths.videos_dir must be set")
	}
	if c.Paths.LogDir == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if c.Paths.APIBind == "" {
		problems = append(problems, "paths.api_bind must be set")
	}

	switch c.Renderer.OutputFormat {
	case "mp4", "mov", "webm", "gif":
	default:
		problems = append(problems, fmt.Sprintf("renderer.output_format %q is not a supported renderer format", c.Renderer.OutputFormat))
	}
	if strings.ContainsAny(c.Renderer.SceneName, " \t/") {
		problems = append(problems, fmt.Sprintf("renderer.scene_name %q must be a bare class name", c.Renderer.SceneName))
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q must be debug, info, warn, or error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

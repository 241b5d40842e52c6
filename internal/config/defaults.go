package config

const (
	defaultWorkspaceDir          = "~/.local/share/reelforge/workspaces"
	defaultVideosDir             = "~/.local/share/reelforge/videos"
	defaultLogDir                = "~/.local/share/reelforge/logs"
	defaultAPIBind               = "127.0.0.1:7606"
	defaultVideoURLBase          = "/videos"
	defaultRendererBinary        = "python3"
	defaultSceneName             = "GeneratedScene"
	defaultOutputFormat          = "mp4"
	defaultRendererMinFreeGiB    = 2
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMReferer            = "https://github.com/reelforge/reelforge"
	defaultLLMTitle              = "Reelforge Scene Writer"
	defaultLLMTimeoutSeconds     = 120
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			VideosDir:    defaultVideosDir,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
			VideoURLBase: defaultVideoURLBase,
		},
		Renderer: Renderer{
			Binary:       defaultRendererBinary,
			ModuleArgs:   []string{"-m", "manim"},
			SceneName:    defaultSceneName,
			OutputFormat: defaultOutputFormat,
			MinFreeGiB:   defaultRendererMinFreeGiB,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

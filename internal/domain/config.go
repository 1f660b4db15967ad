package domain

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Output        OutputConfig        `mapstructure:"output" yaml:"output"`
	Fetch         FetchConfig         `mapstructure:"fetch" yaml:"fetch"`
	Normalize     NormalizeConfig     `mapstructure:"normalize" yaml:"normalize"`
	Tagging       TaggingConfig       `mapstructure:"tagging" yaml:"tagging"`
	Tools         ToolsConfig         `mapstructure:"tools" yaml:"tools"`
	VideoPlatform VideoPlatformConfig `mapstructure:"video_platform" yaml:"video_platform"`
	StreamingA    StreamingConfig     `mapstructure:"streaming_a" yaml:"streaming_a"`
	StreamingB    StreamingConfig     `mapstructure:"streaming_b" yaml:"streaming_b"`
	Classifier    ClassifierConfig    `mapstructure:"classifier" yaml:"classifier"`
	Orchestrator  OrchestratorConfig  `mapstructure:"orchestrator" yaml:"orchestrator"`
	History       HistoryConfig       `mapstructure:"history" yaml:"history"`
	Notification  NotificationConfig  `mapstructure:"notification" yaml:"notification"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig contains HTTP API configuration
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// AllowedOrigins lists browser origins that may call the API; empty refuses all cross-origin requests
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// OutputConfig contains destination settings
type OutputConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`           // empty means DefaultOutputDir()
	LogsDir string `mapstructure:"logs_dir" yaml:"logs_dir"` // external tool output
}

// FetchConfig controls the resilient HTTP fetcher.
// MaxAttempts and MaxElapsed of zero mean unbounded.
type FetchConfig struct {
	InitialBackoff time.Duration `mapstructure:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"` // 0 = no cap
	MaxAttempts    int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	MaxElapsed     time.Duration `mapstructure:"max_elapsed" yaml:"max_elapsed"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// NormalizeConfig contains transcoder settings
type NormalizeConfig struct {
	FFmpegBinary string `mapstructure:"ffmpeg_binary" yaml:"ffmpeg_binary"`
	Bitrate      string `mapstructure:"bitrate" yaml:"bitrate"`
	SampleRate   int    `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// TaggingConfig controls ID3 tagging of finished files
type TaggingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// ToolsConfig applies to every external command
type ToolsConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"` // 0 = no timeout
}

// VideoPlatformConfig contains yt-dlp settings
type VideoPlatformConfig struct {
	Binary               string `mapstructure:"binary" yaml:"binary"`
	AudioQuality         string `mapstructure:"audio_quality" yaml:"audio_quality"`
	EmbedThumbnail       bool   `mapstructure:"embed_thumbnail" yaml:"embed_thumbnail"`
	CookieFile           string `mapstructure:"cookie_file" yaml:"cookie_file"`
	SearchPrefix         string `mapstructure:"search_prefix" yaml:"search_prefix"`
	PlaylistSearchPrefix string `mapstructure:"playlist_search_prefix" yaml:"playlist_search_prefix"`
}

// StreamingConfig contains settings for a streaming-service CLI
type StreamingConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Binary  string `mapstructure:"binary" yaml:"binary"`
	Bitrate string `mapstructure:"bitrate" yaml:"bitrate"`
}

// ClassifierConfig overrides the host table
type ClassifierConfig struct {
	HostRules []HostRule `mapstructure:"host_rules" yaml:"host_rules"`
}

// OrchestratorConfig contains fallback settings
type OrchestratorConfig struct {
	SearchOrder []ProviderID `mapstructure:"search_order" yaml:"search_order"`
}

// HistoryConfig contains acquisition history settings
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled" yaml:"enabled"`
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Method  string `mapstructure:"method" yaml:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"`           // json, console
	OutputPath string `mapstructure:"output_path" yaml:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8089,
		},
		Output: OutputConfig{
			Dir:     "",
			LogsDir: "$HOME/.lecture-fetch/logs",
		},
		Fetch: FetchConfig{
			InitialBackoff: time.Second,
			MaxBackoff:     0,
			MaxAttempts:    8,
			MaxElapsed:     10 * time.Minute,
			RequestTimeout: 0,
			UserAgent:      "lecture-fetch/1.0",
		},
		Normalize: NormalizeConfig{
			FFmpegBinary: "ffmpeg",
			Bitrate:      "192k",
			SampleRate:   44100,
		},
		Tagging: TaggingConfig{
			Enabled: true,
		},
		Tools: ToolsConfig{
			Timeout: 30 * time.Minute,
		},
		VideoPlatform: VideoPlatformConfig{
			Binary:               "yt-dlp",
			AudioQuality:         "0",
			EmbedThumbnail:       true,
			SearchPrefix:         "ytsearch1:",
			PlaylistSearchPrefix: "ytsearch10:",
		},
		StreamingA: StreamingConfig{
			Enabled: true,
			Binary:  "spotdl",
			Bitrate: "192k",
		},
		StreamingB: StreamingConfig{
			Enabled: true,
			Binary:  "scdl",
		},
		Classifier: ClassifierConfig{
			HostRules: DefaultHostRules(),
		},
		Orchestrator: OrchestratorConfig{
			SearchOrder: DefaultSearchOrder(),
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.lecture-fetch/history.db",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
		},
	}
}

// DefaultOutputDir is ~/Downloads on Windows and macOS and the working directory elsewhere
func DefaultOutputDir() string {
	switch runtime.GOOS {
	case "windows", "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Downloads")
		}
	}
	return "."
}

// ResolveOutputDir returns the configured output directory or the platform default
func (c OutputConfig) ResolveOutputDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return DefaultOutputDir()
}

package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Seed viper with every default so LECTUREFETCH_* variables can override any key
	defaults, err := yaml.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode defaults: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.lecture-fetch")
		v.AddConfigPath("/etc/lecture-fetch")
	}

	v.SetEnvPrefix("LECTUREFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Output.Dir = expandPath(config.Output.Dir)
	config.Output.LogsDir = expandPath(config.Output.LogsDir)
	config.History.DatabasePath = expandPath(config.History.DatabasePath)
	config.VideoPlatform.CookieFile = expandPath(config.VideoPlatform.CookieFile)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	// $HOME first so it resolves even where the variable is unset (Windows)
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Fetch.InitialBackoff < 0 || config.Fetch.MaxBackoff < 0 || config.Fetch.MaxElapsed < 0 {
		return fmt.Errorf("fetch durations cannot be negative")
	}

	if config.Fetch.MaxAttempts < 0 {
		return fmt.Errorf("fetch max attempts cannot be negative")
	}

	if config.Tools.Timeout < 0 {
		return fmt.Errorf("tool timeout cannot be negative")
	}

	if config.Normalize.Bitrate == "" {
		return fmt.Errorf("normalize bitrate not configured")
	}

	if config.Normalize.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", config.Normalize.SampleRate)
	}

	binaries := map[string]string{
		"normalize.ffmpeg_binary": config.Normalize.FFmpegBinary,
		"video_platform.binary":   config.VideoPlatform.Binary,
		"streaming_a.binary":      config.StreamingA.Binary,
		"streaming_b.binary":      config.StreamingB.Binary,
	}
	for key, binary := range binaries {
		if binary == "" {
			return fmt.Errorf("%s not configured", key)
		}
	}

	if err := validateSearchOrder(config.Orchestrator.SearchOrder); err != nil {
		return err
	}

	for _, rule := range config.Classifier.HostRules {
		if rule.Match == "" {
			return fmt.Errorf("host rule without match")
		}
		if !domain.ValidateProvider(rule.Provider) {
			return fmt.Errorf("host rule %q: %w: %s", rule.Match, domain.ErrUnknownProvider, rule.Provider)
		}
	}

	if config.History.Enabled && config.History.DatabasePath == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

func validateSearchOrder(order []domain.ProviderID) error {
	if len(order) == 0 {
		return fmt.Errorf("search order is empty")
	}
	seen := make(map[domain.ProviderID]bool, len(order))
	for _, id := range order {
		if !domain.ValidateProvider(id) {
			return fmt.Errorf("search order: %w: %s", domain.ErrUnknownProvider, id)
		}
		if seen[id] {
			return fmt.Errorf("search order: duplicate provider %s", id)
		}
		seen[id] = true
	}
	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

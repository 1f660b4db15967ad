package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/app"
	"github.com/yourusername/lecture-fetch/internal/domain"
	"github.com/yourusername/lecture-fetch/pkg/logger"
)

var (
	configPath string
	logLevel   string
	rootCmd    = &cobra.Command{
		Use:   "lecture-fetch",
		Short: "lecture-fetch - get any lecture or talk as an mp3",
		Long: `Acquires audio from a URL or a free-text search. URLs go to the matching provider;
searches fall back through streaming services, the video platform and plain HTTP
until one of them produces a file.`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: search ./configs, ~/.lecture-fetch, /etc/lecture-fetch)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads configuration honoring --config and --log-level
func loadConfig() (*domain.Config, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	return config, nil
}

// newLogger builds the process logger from config
func newLogger(config *domain.Config) (*zap.Logger, error) {
	return logger.New(logger.Config{
		Level:       config.Logging.Level,
		Format:      config.Logging.Format,
		OutputPath:  config.Logging.OutputPath,
		ErrorLogDir: config.Output.LogsDir,
	})
}

// setup loads config and wires the application
func setup() (*app.Components, *zap.Logger, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	log, err := newLogger(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	components, err := app.Build(config, log)
	if err != nil {
		log.Sync()
		return nil, nil, err
	}

	return components, log, nil
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

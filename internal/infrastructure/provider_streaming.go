package infrastructure

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

// StreamingProvider acquires audio through a streaming-service CLI
type StreamingProvider struct {
	id        domain.ProviderID
	config    *domain.StreamingConfig
	buildArgs func(config *domain.StreamingConfig, target domain.Target, destDir string) []string
	tool      toolAcquisition
}

// NewSpotdlProvider creates the streaming A provider, backed by spotdl
func NewSpotdlProvider(config *domain.StreamingConfig, runner CommandRunner, logger *zap.Logger) *StreamingProvider {
	return newStreamingProvider(domain.ProviderStreamingA, config, spotdlArgs, runner, logger)
}

// NewScdlProvider creates the streaming B provider, backed by scdl
func NewScdlProvider(config *domain.StreamingConfig, runner CommandRunner, logger *zap.Logger) *StreamingProvider {
	return newStreamingProvider(domain.ProviderStreamingB, config, scdlArgs, runner, logger)
}

func newStreamingProvider(
	id domain.ProviderID,
	config *domain.StreamingConfig,
	buildArgs func(*domain.StreamingConfig, domain.Target, string) []string,
	runner CommandRunner,
	logger *zap.Logger,
) *StreamingProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamingProvider{
		id:        id,
		config:    config,
		buildArgs: buildArgs,
		tool: toolAcquisition{
			provider: id,
			runner:   runner,
			logger:   logger,
		},
	}
}

// ID returns the provider identity
func (p *StreamingProvider) ID() domain.ProviderID {
	return p.id
}

// Args builds the tool's argument vector
func (p *StreamingProvider) Args(target domain.Target, destDir string) []string {
	return p.buildArgs(p.config, target, destDir)
}

// Acquire runs the tool into destDir
func (p *StreamingProvider) Acquire(ctx context.Context, target domain.Target, destDir string) (*domain.AcquiredFile, error) {
	return p.tool.run(ctx, destDir, func(workDir string) Command {
		return Command{
			Label:  p.config.Binary + " " + target.Value,
			Binary: p.config.Binary,
			Args:   p.Args(target, workDir),
		}
	})
}

// spotdl takes URLs and search text the same way
func spotdlArgs(config *domain.StreamingConfig, target domain.Target, destDir string) []string {
	args := []string{
		"download", target.Value,
		"--output", filepath.Join(destDir, "{artists} - {title}.{output-ext}"),
		"--format", domain.CanonicalFormat,
	}
	if config.Bitrate != "" {
		args = append(args, "--bitrate", config.Bitrate)
	}
	return args
}

// scdl needs -l for links and -s for searches
func scdlArgs(config *domain.StreamingConfig, target domain.Target, destDir string) []string {
	var args []string
	if target.IsSearch() {
		args = append(args, "-s", target.Value)
	} else {
		args = append(args, "-l", target.Value)
	}
	return append(args, "--path", destDir, "--onlymp3")
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

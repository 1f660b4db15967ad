package infrastructure

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

// stagingPattern names the private directory each tool invocation writes into
const stagingPattern = ".lecture-fetch-*"

// toolAcquisition runs one provider tool and picks up the audio file it wrote
type toolAcquisition struct {
	provider domain.ProviderID
	runner   CommandRunner
	logger   *zap.Logger
}

// run builds the command for a fresh staging directory inside destDir, runs it, and moves
// the audio it produced into destDir. Concurrent runs into one destDir never see each other's files.
func (a toolAcquisition) run(ctx context.Context, destDir string, build func(workDir string) Command) (*domain.AcquiredFile, error) {
	cmd := build(destDir)
	if _, err := a.runner.LookPath(cmd.Binary); err != nil {
		return nil, domain.NewProviderError(a.provider, &domain.ToolUnavailableError{Binary: cmd.Binary, Err: err})
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, domain.NewProviderError(a.provider, fmt.Errorf("failed to create destination: %w", err))
	}

	staging, err := os.MkdirTemp(destDir, stagingPattern)
	if err != nil {
		return nil, domain.NewProviderError(a.provider, fmt.Errorf("failed to create staging directory: %w", err))
	}
	defer os.RemoveAll(staging)

	cmd = build(staging)

	a.logger.Info("Running provider tool",
		zap.String("provider", string(a.provider)),
		zap.String("command", cmd.String()))

	if err := a.runner.Run(ctx, cmd); err != nil {
		return nil, domain.NewProviderError(a.provider, fmt.Errorf("%s failed: %w", cmd.Binary, err))
	}

	path, err := collectAudio(staging, destDir)
	if err != nil {
		return nil, domain.NewProviderError(a.provider, err)
	}

	return domain.NewAcquiredFile(path), nil
}

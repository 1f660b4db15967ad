package infrastructure

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

// FFmpegNormalizer transcodes media into mp3 with a fixed profile
type FFmpegNormalizer struct {
	config *domain.NormalizeConfig
	runner CommandRunner
	logger *zap.Logger
}

// NewFFmpegNormalizer creates a new normalizer
func NewFFmpegNormalizer(config *domain.NormalizeConfig, runner CommandRunner, logger *zap.Logger) *FFmpegNormalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FFmpegNormalizer{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// OutputPath is the mp3 path sharing input's base name inside destDir
func OutputPath(input, destDir string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(destDir, base+"."+domain.CanonicalFormat)
}

// Args builds the ffmpeg argument vector: drop video, fixed bitrate and sample rate, overwrite
func (n *FFmpegNormalizer) Args(input, output string) []string {
	return []string{
		"-i", input,
		"-vn",
		"-ab", n.config.Bitrate,
		"-ar", strconv.Itoa(n.config.SampleRate),
		"-y",
		output,
	}
}

// Normalize converts input into <destDir>/<base>.mp3.
// Failures are *domain.ConversionError and are not retried.
func (n *FFmpegNormalizer) Normalize(ctx context.Context, input, destDir string) (*domain.AcquiredFile, error) {
	output := OutputPath(input, destDir)
	if filepath.Clean(input) == filepath.Clean(output) {
		return nil, &domain.ConversionError{Input: input, Err: fmt.Errorf("input is already %s", output)}
	}

	if _, err := n.runner.LookPath(n.config.FFmpegBinary); err != nil {
		return nil, &domain.ConversionError{
			Input: input,
			Err:   &domain.ToolUnavailableError{Binary: n.config.FFmpegBinary, Err: err},
		}
	}

	n.logger.Info("Normalizing",
		zap.String("input", input),
		zap.String("output", output))

	err := n.runner.Run(ctx, Command{
		Label:  "ffmpeg " + filepath.Base(input),
		Binary: n.config.FFmpegBinary,
		Args:   n.Args(input, output),
	})
	if err != nil {
		return nil, &domain.ConversionError{Input: input, Err: err}
	}

	return domain.NewAcquiredFile(output), nil
}

package infrastructure

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

// VideoPlatformProvider acquires audio through yt-dlp
type VideoPlatformProvider struct {
	config *domain.VideoPlatformConfig
	tool   toolAcquisition
}

// NewVideoPlatformProvider creates a new yt-dlp provider
func NewVideoPlatformProvider(config *domain.VideoPlatformConfig, runner CommandRunner, logger *zap.Logger) *VideoPlatformProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoPlatformProvider{
		config: config,
		tool: toolAcquisition{
			provider: domain.ProviderVideoPlatform,
			runner:   runner,
			logger:   logger,
		},
	}
}

// ID returns the provider identity
func (p *VideoPlatformProvider) ID() domain.ProviderID {
	return domain.ProviderVideoPlatform
}

// Expression is what yt-dlp is asked to fetch: the URL itself, or a search
func (p *VideoPlatformProvider) Expression(target domain.Target) string {
	if !target.IsSearch() {
		return target.Value
	}
	if target.Classification.IsPlaylist() {
		return p.config.PlaylistSearchPrefix + target.Value
	}
	return p.config.SearchPrefix + target.Value
}

// Args builds the yt-dlp argument vector
func (p *VideoPlatformProvider) Args(target domain.Target, destDir string) []string {
	args := []string{
		"-f", "bestaudio",
		"--extract-audio",
		"--audio-format", domain.CanonicalFormat,
		"--audio-quality", p.config.AudioQuality,
		"--no-mtime",
		"--no-progress",
	}

	if p.config.EmbedThumbnail {
		args = append(args, "--embed-thumbnail")
	}

	if p.config.CookieFile != "" && fileExists(p.config.CookieFile) {
		args = append(args, "--cookies", p.config.CookieFile)
	}

	if target.Classification.IsPlaylist() {
		args = append(args, "--yes-playlist")
	} else {
		args = append(args, "--no-playlist")
	}

	return append(args,
		"-o", filepath.Join(destDir, "%(title)s.%(ext)s"),
		p.Expression(target),
	)
}

// Acquire runs yt-dlp into destDir
func (p *VideoPlatformProvider) Acquire(ctx context.Context, target domain.Target, destDir string) (*domain.AcquiredFile, error) {
	return p.tool.run(ctx, destDir, func(workDir string) Command {
		return Command{
			Label:  "yt-dlp " + p.Expression(target),
			Binary: p.config.Binary,
			Args:   p.Args(target, workDir),
		}
	})
}

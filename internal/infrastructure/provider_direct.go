package infrastructure

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

// fallbackFilename is used when a URL has no trailing path segment
const fallbackFilename = "downloaded_file"

// DirectHTTPProvider downloads a URL as-is and normalizes it when needed
type DirectHTTPProvider struct {
	fetcher    *Fetcher
	normalizer domain.Normalizer
	progress   ProgressFunc
	logger     *zap.Logger
}

// NewDirectHTTPProvider creates a new direct HTTP provider
func NewDirectHTTPProvider(fetcher *Fetcher, normalizer domain.Normalizer, logger *zap.Logger) *DirectHTTPProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectHTTPProvider{
		fetcher:    fetcher,
		normalizer: normalizer,
		logger:     logger,
	}
}

// SetProgress installs a byte progress observer
func (p *DirectHTTPProvider) SetProgress(progress ProgressFunc) {
	p.progress = progress
}

// ID returns the provider identity
func (p *DirectHTTPProvider) ID() domain.ProviderID {
	return domain.ProviderDirectHTTP
}

// Acquire downloads target.Value into destDir
func (p *DirectHTTPProvider) Acquire(ctx context.Context, target domain.Target, destDir string) (*domain.AcquiredFile, error) {
	if !domain.IsURL(target.Value) {
		return nil, domain.NewProviderError(p.ID(), domain.ErrNotURL)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, domain.NewProviderError(p.ID(), fmt.Errorf("failed to create destination: %w", err))
	}

	path := filepath.Join(destDir, FilenameFromURL(target.Value))

	p.logger.Info("Downloading",
		zap.String("url", target.Value),
		zap.String("path", path))

	n, err := p.fetcher.Download(ctx, target.Value, path, p.progress)
	if err != nil {
		return nil, domain.NewProviderError(p.ID(), fmt.Errorf("download failed: %w", err))
	}

	p.logger.Info("Downloaded",
		zap.String("path", path),
		zap.Int64("bytes", n))

	if strings.EqualFold(filepath.Ext(path), "."+domain.CanonicalFormat) {
		return domain.NewAcquiredFile(path), nil
	}

	file, err := p.normalizer.Normalize(ctx, path, destDir)
	if err != nil {
		os.Remove(path)
		return nil, domain.NewProviderError(p.ID(), err)
	}
	return file, nil
}

// FilenameFromURL returns the trailing path segment of rawURL, or "downloaded_file"
// when the segment is empty, hidden or contains a separator
func FilenameFromURL(rawURL string) string {
	segment := ""
	if u, err := url.Parse(rawURL); err == nil {
		segment = u.Path[strings.LastIndex(u.Path, "/")+1:]
	} else {
		trimmed := strings.SplitN(rawURL, "?", 2)[0]
		segment = trimmed[strings.LastIndex(trimmed, "/")+1:]
	}

	// covers "." and ".." as well as dotfiles such as .bashrc
	if segment == "" || strings.HasPrefix(segment, ".") || strings.ContainsAny(segment, `/\`) {
		return fallbackFilename
	}
	return segment
}

package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/domain"
	"github.com/yourusername/lecture-fetch/internal/infrastructure"
)

// Components is the assembled application shared by the CLI and the server
type Components struct {
	Config       *domain.Config
	Runner       infrastructure.CommandRunner
	Fetcher      *infrastructure.Fetcher
	Direct       *infrastructure.DirectHTTPProvider
	Orchestrator *Orchestrator
	Service      *AcquisitionService
	repo         *infrastructure.SQLiteAcquisitionRepository
}

// Build wires every component from config
func Build(config *domain.Config, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	runner := infrastructure.NewProcessRunner(config.Output.LogsDir, config.Tools.Timeout, logger)
	fetcher := infrastructure.NewFetcher(&config.Fetch, logger)
	normalizer := infrastructure.NewFFmpegNormalizer(&config.Normalize, runner, logger)
	direct := infrastructure.NewDirectHTTPProvider(fetcher, normalizer, logger)

	providers := BuildProviders(config, runner, direct, logger)
	orchestrator := NewOrchestrator(
		providers,
		config.Orchestrator.SearchOrder,
		domain.NewClassifier(config.Classifier.HostRules),
		logger,
	)

	c := &Components{
		Config:       config,
		Runner:       runner,
		Fetcher:      fetcher,
		Direct:       direct,
		Orchestrator: orchestrator,
	}

	var repo domain.AcquisitionRepository
	if config.History.Enabled {
		sqliteRepo, err := infrastructure.NewSQLiteAcquisitionRepository(config.History.DatabasePath)
		if err != nil {
			return nil, err
		}
		c.repo = sqliteRepo
		repo = sqliteRepo
	}

	var tagger domain.Tagger
	if config.Tagging.Enabled {
		tagger = infrastructure.NewID3Tagger(logger)
	}

	notifier := infrastructure.NewNotificationService(&config.Notification, logger)

	c.Service = NewAcquisitionService(
		orchestrator,
		repo,
		tagger,
		notifier,
		config.Output.ResolveOutputDir(),
		logger,
	)

	return c, nil
}

// Ready reports whether the history database is reachable and the output directory is writable
func (c *Components) Ready() error {
	if c.repo != nil {
		if err := c.repo.Ping(); err != nil {
			return fmt.Errorf("history database: %w", err)
		}
	}
	dir := c.Service.DefaultDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("output directory %s: %w", dir, err)
	}
	return nil
}

// Close releases the history database
func (c *Components) Close() error {
	if c.repo == nil {
		return nil
	}
	return c.repo.Close()
}

// BuildProviders creates the enabled providers. The direct and video providers are always present.
func BuildProviders(
	config *domain.Config,
	runner infrastructure.CommandRunner,
	direct *infrastructure.DirectHTTPProvider,
	logger *zap.Logger,
) []domain.Provider {
	providers := []domain.Provider{
		direct,
		infrastructure.NewVideoPlatformProvider(&config.VideoPlatform, runner, logger),
	}
	if config.StreamingA.Enabled {
		providers = append(providers, infrastructure.NewSpotdlProvider(&config.StreamingA, runner, logger))
	}
	if config.StreamingB.Enabled {
		providers = append(providers, infrastructure.NewScdlProvider(&config.StreamingB, runner, logger))
	}
	return providers
}

// ProviderStatus describes whether a provider can run on this machine
type ProviderStatus struct {
	Provider  domain.ProviderID `json:"provider"`
	Binary    string            `json:"binary"`
	Enabled   bool              `json:"enabled"`
	Available bool              `json:"available"`
	Path      string            `json:"path,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// DiagnoseProviders checks the external tool behind every provider: the search order first,
// then any provider it leaves out. direct_http depends on the transcoder for non-mp3 downloads.
func DiagnoseProviders(config *domain.Config, runner infrastructure.CommandRunner) []ProviderStatus {
	binaries := map[domain.ProviderID]string{
		domain.ProviderDirectHTTP:    config.Normalize.FFmpegBinary,
		domain.ProviderVideoPlatform: config.VideoPlatform.Binary,
		domain.ProviderStreamingA:    config.StreamingA.Binary,
		domain.ProviderStreamingB:    config.StreamingB.Binary,
	}
	enabled := map[domain.ProviderID]bool{
		domain.ProviderDirectHTTP:    true,
		domain.ProviderVideoPlatform: true,
		domain.ProviderStreamingA:    config.StreamingA.Enabled,
		domain.ProviderStreamingB:    config.StreamingB.Enabled,
	}

	order := append([]domain.ProviderID(nil), config.Orchestrator.SearchOrder...)
	for _, id := range domain.AllProviders() {
		if !containsProvider(order, id) {
			order = append(order, id)
		}
	}

	statuses := make([]ProviderStatus, 0, len(order))
	for _, id := range order {
		status := ProviderStatus{
			Provider: id,
			Binary:   binaries[id],
			Enabled:  enabled[id],
		}
		path, err := runner.LookPath(status.Binary)
		if err != nil {
			status.Error = err.Error()
		} else {
			status.Available = true
			status.Path = path
		}
		statuses = append(statuses, status)
	}
	return statuses
}

func containsProvider(ids []domain.ProviderID, id domain.ProviderID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

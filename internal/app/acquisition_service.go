package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/domain"
	"github.com/yourusername/lecture-fetch/internal/infrastructure"
)

// ErrHistoryDisabled is returned by history queries when no repository is configured
var ErrHistoryDisabled = errors.New("acquisition history is disabled")

// AcquireOptions tune a single acquisition
type AcquireOptions struct {
	// SkipExisting returns a previous completed result for the same input if its file still exists
	SkipExisting bool
}

// Result is what the service hands back to the CLI and API
type Result struct {
	Acquisition *domain.Acquisition
	File        *domain.AcquiredFile
	Skipped     bool
}

// AcquisitionService wraps the orchestrator with history, tagging and notifications
type AcquisitionService struct {
	orchestrator *Orchestrator
	repo         domain.AcquisitionRepository
	tagger       domain.Tagger
	notifier     *infrastructure.NotificationService
	defaultDir   string
	logger       *zap.Logger
}

// NewAcquisitionService creates a new acquisition service.
// repo, tagger and notifier may be nil.
func NewAcquisitionService(
	orchestrator *Orchestrator,
	repo domain.AcquisitionRepository,
	tagger domain.Tagger,
	notifier *infrastructure.NotificationService,
	defaultDir string,
	logger *zap.Logger,
) *AcquisitionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultDir == "" {
		defaultDir = domain.DefaultOutputDir()
	}
	return &AcquisitionService{
		orchestrator: orchestrator,
		repo:         repo,
		tagger:       tagger,
		notifier:     notifier,
		defaultDir:   defaultDir,
		logger:       logger,
	}
}

// Classify previews how raw would be handled
func (s *AcquisitionService) Classify(raw string) domain.SourceClassification {
	return s.orchestrator.Classify(raw)
}

// Plan classifies raw and lists the providers that would be tried
func (s *AcquisitionService) Plan(raw string) (domain.SourceClassification, []domain.ProviderID) {
	classification := s.orchestrator.Classify(raw)
	return classification, s.orchestrator.Plan(classification)
}

// DefaultDir is where results go when a request names no destination
func (s *AcquisitionService) DefaultDir() string {
	return s.defaultDir
}

// ResolveDestination places a client-supplied directory under root.
// Empty means root itself; absolute paths and paths climbing out of root are refused.
func ResolveDestination(root, dest string) (string, error) {
	if dest == "" {
		return root, nil
	}
	if !filepath.IsLocal(dest) {
		return "", fmt.Errorf("%w: %s", domain.ErrOutsideOutputDir, dest)
	}
	return filepath.Join(root, dest), nil
}

// HistoryEnabled reports whether acquisitions are recorded
func (s *AcquisitionService) HistoryEnabled() bool {
	return s.repo != nil
}

// Acquire runs one acquisition end to end. The returned Result is non-nil whenever
// an attempt was made, so callers can show the record of a failure.
func (s *AcquisitionService) Acquire(ctx context.Context, req domain.AcquisitionRequest, opts AcquireOptions) (*Result, error) {
	if req.DestinationDir == "" {
		req.DestinationDir = s.defaultDir
	}

	if opts.SkipExisting {
		if prev := s.findExisting(req.RawInput); prev != nil {
			s.logger.Info("Already acquired, skipping",
				zap.String("input", req.RawInput),
				zap.String("id", prev.ID),
				zap.String("path", prev.FilePath))
			return &Result{Acquisition: prev, File: domain.NewAcquiredFile(prev.FilePath), Skipped: true}, nil
		}
	}

	acq := domain.NewAcquisition(req, s.orchestrator.Classify(req.RawInput))
	if s.repo != nil {
		if err := s.repo.Create(acq); err != nil {
			s.logger.Warn("Failed to record acquisition", zap.String("id", acq.ID), zap.Error(err))
		}
	}

	outcome, err := s.orchestrator.Acquire(ctx, req)
	if outcome != nil {
		acq.SetAttempts(outcome.Attempts)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			acq.MarkCancelled(err)
		} else {
			acq.MarkFailed(err)
		}
		s.save(acq)

		s.logger.Error("Acquisition failed",
			zap.String("id", acq.ID),
			zap.String("input", req.RawInput),
			zap.String("status", string(acq.Status)),
			zap.Error(err))

		s.notifier.NotifyFailed(req.RawInput, err)
		return &Result{Acquisition: acq}, err
	}

	if s.tagger != nil {
		if err := s.tagger.Tag(outcome.File, req.RawInput); err != nil {
			s.logger.Warn("Failed to tag file", zap.String("path", outcome.File.Path), zap.Error(err))
		}
	}

	acq.MarkCompleted(outcome.Provider, outcome.File)
	s.save(acq)

	s.logger.Info("Acquisition completed",
		zap.String("id", acq.ID),
		zap.String("input", req.RawInput),
		zap.String("provider", string(outcome.Provider)),
		zap.String("path", outcome.File.Path),
		zap.Duration("duration", acq.Duration()))

	s.notifier.NotifyCompleted(req.RawInput, outcome.Provider, outcome.File.Path)
	return &Result{Acquisition: acq, File: outcome.File}, nil
}

// findExisting returns a completed record for rawInput whose file is still on disk
func (s *AcquisitionService) findExisting(rawInput string) *domain.Acquisition {
	if s.repo == nil {
		return nil
	}
	prev, err := s.repo.FindLatestCompleted(rawInput)
	if err != nil {
		s.logger.Warn("Failed to look up history", zap.String("input", rawInput), zap.Error(err))
		return nil
	}
	if prev == nil || prev.FilePath == "" {
		return nil
	}
	if _, err := os.Stat(prev.FilePath); err != nil {
		return nil
	}
	return prev
}

func (s *AcquisitionService) save(acq *domain.Acquisition) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Update(acq); err != nil {
		s.logger.Error("Failed to update acquisition status", zap.String("id", acq.ID), zap.Error(err))
	}
}

// Get returns one history record
func (s *AcquisitionService) Get(id string) (*domain.Acquisition, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.FindByID(id)
}

// List returns history records matching filter
func (s *AcquisitionService) List(filter domain.AcquisitionFilter) ([]*domain.Acquisition, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.FindAll(filter)
}

// Stats returns history statistics
func (s *AcquisitionService) Stats() (*domain.AcquisitionStats, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.GetStats()
}

// Delete removes a history record. The acquired file is left alone.
func (s *AcquisitionService) Delete(id string) error {
	if s.repo == nil {
		return ErrHistoryDisabled
	}
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete acquisition %s: %w", id, err)
	}
	s.logger.Info("Acquisition record deleted", zap.String("id", id))
	return nil
}

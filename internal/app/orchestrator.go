package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

// Outcome is the result of a successful acquisition, or the partial record of a failed one
type Outcome struct {
	File           *domain.AcquiredFile
	Provider       domain.ProviderID
	Classification domain.SourceClassification
	Attempts       []domain.Attempt
}

// Orchestrator classifies an input and drives providers until one produces a file
type Orchestrator struct {
	providers   map[domain.ProviderID]domain.Provider
	searchOrder []domain.ProviderID
	classifier  *domain.Classifier
	logger      *zap.Logger
}

// NewOrchestrator creates a new orchestrator. Providers are keyed by their ID;
// searchOrder is the fallback order for free-text queries.
func NewOrchestrator(
	providers []domain.Provider,
	searchOrder []domain.ProviderID,
	classifier *domain.Classifier,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if classifier == nil {
		classifier = domain.NewClassifier(nil)
	}
	if len(searchOrder) == 0 {
		searchOrder = domain.DefaultSearchOrder()
	}

	registry := make(map[domain.ProviderID]domain.Provider, len(providers))
	for _, p := range providers {
		registry[p.ID()] = p
	}

	return &Orchestrator{
		providers:   registry,
		searchOrder: append([]domain.ProviderID(nil), searchOrder...),
		classifier:  classifier,
		logger:      logger,
	}
}

// Classify classifies raw with the orchestrator's host rules
func (o *Orchestrator) Classify(raw string) domain.SourceClassification {
	return o.classifier.Classify(raw)
}

// SearchOrder returns the fallback order for queries
func (o *Orchestrator) SearchOrder() []domain.ProviderID {
	return append([]domain.ProviderID(nil), o.searchOrder...)
}

// Registered reports whether a provider is available to the orchestrator
func (o *Orchestrator) Registered(id domain.ProviderID) bool {
	_, ok := o.providers[id]
	return ok
}

// Plan lists the providers Acquire would try for c, in order
func (o *Orchestrator) Plan(c domain.SourceClassification) []domain.ProviderID {
	if c.IsURL() {
		return []domain.ProviderID{c.Provider}
	}
	var plan []domain.ProviderID
	for _, id := range o.searchOrder {
		if o.Registered(id) {
			plan = append(plan, id)
		}
	}
	return plan
}

// Acquire produces one mp3 for req.
//
// A URL goes to exactly the provider its host maps to and is never retried elsewhere.
// A query tries the search order one provider at a time and stops at the first success;
// if every provider fails the error is a *domain.ExhaustedError listing each cause in order.
// The returned Outcome is non-nil even on failure and carries the attempts made.
func (o *Orchestrator) Acquire(ctx context.Context, req domain.AcquisitionRequest) (*Outcome, error) {
	classification := o.classifier.Classify(req.RawInput)
	target := domain.Target{
		Value:          strings.TrimSpace(req.RawInput),
		Classification: classification,
	}
	outcome := &Outcome{Classification: classification}

	o.logger.Info("Acquiring",
		zap.String("input", target.Value),
		zap.String("kind", string(classification.Kind)),
		zap.String("hint", string(classification.Hint)),
		zap.String("provider", string(classification.Provider)))

	if classification.IsURL() {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		file, err := o.attempt(ctx, outcome, classification.Provider, target, req.DestinationDir)
		if err != nil {
			return outcome, err
		}
		outcome.File = file
		outcome.Provider = classification.Provider
		return outcome, nil
	}

	var failures []*domain.ProviderError
	for _, id := range o.searchOrder {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		if !o.Registered(id) {
			o.logger.Debug("Skipping disabled provider", zap.String("provider", string(id)))
			continue
		}

		file, err := o.attempt(ctx, outcome, id, target, req.DestinationDir)
		if err == nil {
			outcome.File = file
			outcome.Provider = id
			return outcome, nil
		}

		var provErr *domain.ProviderError
		errors.As(err, &provErr)
		failures = append(failures, provErr)

		o.logger.Warn("Provider failed, trying next",
			zap.String("input", target.Value),
			zap.String("provider", string(id)),
			zap.Error(provErr.Cause))
	}

	if err := ctx.Err(); err != nil {
		return outcome, err
	}

	return outcome, domain.NewExhaustedError(target.Value, failures...)
}

// attempt runs one provider and records it on outcome. Errors are always *domain.ProviderError.
func (o *Orchestrator) attempt(
	ctx context.Context,
	outcome *Outcome,
	id domain.ProviderID,
	target domain.Target,
	destDir string,
) (*domain.AcquiredFile, error) {
	provider, ok := o.providers[id]
	if !ok {
		err := domain.NewProviderError(id, domain.ErrUnknownProvider)
		outcome.Attempts = append(outcome.Attempts, domain.Attempt{Provider: id, Error: err.Cause.Error()})
		return nil, err
	}

	start := time.Now()
	file, err := provider.Acquire(ctx, target, destDir)
	elapsed := time.Since(start)

	if err == nil && file == nil {
		err = domain.ErrNoOutput
	}

	if err != nil {
		var provErr *domain.ProviderError
		if !errors.As(err, &provErr) || provErr.Provider != id {
			provErr = domain.NewProviderError(id, err)
		}
		outcome.Attempts = append(outcome.Attempts, domain.Attempt{
			Provider: id,
			Error:    provErr.Cause.Error(),
			Duration: elapsed,
		})
		return nil, provErr
	}

	outcome.Attempts = append(outcome.Attempts, domain.Attempt{Provider: id, Duration: elapsed})

	o.logger.Info("Acquired",
		zap.String("input", target.Value),
		zap.String("provider", string(id)),
		zap.String("path", file.Path),
		zap.Duration("elapsed", elapsed))

	return file, nil
}

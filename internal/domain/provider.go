package domain

import (
	"context"
	"path/filepath"
	"strings"
)

// CanonicalFormat is the audio format every acquisition ends up in
const CanonicalFormat = "mp3"

// Provider defines the interface for a single acquisition source
type Provider interface {
	// ID returns the identity of this provider
	ID() ProviderID

	// Acquire fetches the target into destDir and returns the resulting file
	Acquire(ctx context.Context, target Target, destDir string) (*AcquiredFile, error)
}

// Target is what a provider is asked to acquire
type Target struct {
	Value          string
	Classification SourceClassification
}

// NewTarget classifies raw with the default rules and wraps it as a target
func NewTarget(raw string) Target {
	return Target{Value: strings.TrimSpace(raw), Classification: Classify(raw)}
}

// IsSearch reports whether the target is a free-text query
func (t Target) IsSearch() bool {
	return t.Classification.Kind == KindSearchQuery
}

// AcquisitionRequest is one item to acquire
type AcquisitionRequest struct {
	RawInput       string
	DestinationDir string
}

// AcquiredFile is the result of a successful provider invocation
type AcquiredFile struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

// NewAcquiredFile builds an AcquiredFile, deriving the format from the extension
func NewAcquiredFile(path string) *AcquiredFile {
	return &AcquiredFile{Path: path, Format: FormatOf(path)}
}

// FormatOf returns the lower-case extension of path without the dot
func FormatOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Normalizer converts a local media file into the canonical audio format
type Normalizer interface {
	// Normalize writes <destDir>/<base>.mp3 and fails with *ConversionError
	Normalize(ctx context.Context, input, destDir string) (*AcquiredFile, error)
}

// Tagger writes metadata into a finished file
type Tagger interface {
	Tag(file *AcquiredFile, rawInput string) error
}

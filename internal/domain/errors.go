package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	ErrToolUnavailable  = errors.New("tool unavailable")
	ErrNotURL           = errors.New("target is not a URL")
	ErrNoOutput         = errors.New("no audio file produced")
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrUnknownProvider  = errors.New("unknown provider")
	ErrNotFound         = errors.New("acquisition not found")
	ErrOutsideOutputDir = errors.New("destination outside the output directory")
)

// ProviderError is a failed provider attempt
type ProviderError struct {
	Provider ProviderID
	Cause    error
}

// NewProviderError wraps cause as a failure of provider
func NewProviderError(provider ProviderID, cause error) *ProviderError {
	return &ProviderError{Provider: provider, Cause: cause}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// ToolUnavailableError means an external binary is not installed.
// It matches ErrToolUnavailable with errors.Is.
type ToolUnavailableError struct {
	Binary string
	Err    error
}

func (e *ToolUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s not found in PATH: %v", ErrToolUnavailable, e.Binary, e.Err)
}

func (e *ToolUnavailableError) Is(target error) bool {
	return target == ErrToolUnavailable
}

func (e *ToolUnavailableError) Unwrap() error {
	return e.Err
}

// ConversionError is a transcoder failure. These are never retried.
type ConversionError struct {
	Input string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion of %s failed: %v", e.Input, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// ExhaustedError is returned when every provider in the fallback chain failed
type ExhaustedError struct {
	Input  string
	Errors *multierror.Error
}

// NewExhaustedError collects failures in the order they happened
func NewExhaustedError(input string, failures ...*ProviderError) *ExhaustedError {
	var result *multierror.Error
	for _, f := range failures {
		result = multierror.Append(result, f)
	}
	if result != nil {
		result.ErrorFormat = listProviderErrors
	}
	return &ExhaustedError{Input: input, Errors: result}
}

func (e *ExhaustedError) Error() string {
	if e.Errors == nil || len(e.Errors.Errors) == 0 {
		return fmt.Sprintf("no provider could acquire %q", e.Input)
	}
	return fmt.Sprintf("all providers failed for %q: %s", e.Input, e.Errors.Error())
}

func (e *ExhaustedError) Unwrap() error {
	if e.Errors == nil {
		return nil
	}
	return e.Errors.ErrorOrNil()
}

// Failures returns the per-provider errors in priority order
func (e *ExhaustedError) Failures() []*ProviderError {
	if e.Errors == nil {
		return nil
	}
	failures := make([]*ProviderError, 0, len(e.Errors.Errors))
	for _, err := range e.Errors.Errors {
		var perr *ProviderError
		if errors.As(err, &perr) {
			failures = append(failures, perr)
		}
	}
	return failures
}

// Providers returns the identities that failed, in order
func (e *ExhaustedError) Providers() []ProviderID {
	var ids []ProviderID
	for _, f := range e.Failures() {
		ids = append(ids, f.Provider)
	}
	return ids
}

func listProviderErrors(errs []error) string {
	lines := make([]string, 0, len(errs))
	for _, err := range errs {
		lines = append(lines, "\t* "+err.Error())
	}
	return fmt.Sprintf("%d attempt(s):\n%s\n", len(errs), strings.Join(lines, "\n"))
}

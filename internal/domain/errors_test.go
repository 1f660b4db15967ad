package domain

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolUnavailableError(t *testing.T) {
	err := NewProviderError(ProviderStreamingA, &ToolUnavailableError{Binary: "spotdl", Err: exec.ErrNotFound})

	assert.True(t, errors.Is(err, ErrToolUnavailable))
	assert.True(t, errors.Is(err, exec.ErrNotFound))
	assert.Contains(t, err.Error(), "streaming_a")
	assert.Contains(t, err.Error(), "spotdl")
}

func TestConversionError(t *testing.T) {
	cause := errors.New("exit status 1")
	err := fmt.Errorf("normalize: %w", &ConversionError{Input: "/tmp/a.wav", Err: cause})

	var convErr *ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "/tmp/a.wav", convErr.Input)
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrToolUnavailable))
}

func TestExhaustedError(t *testing.T) {
	failures := []*ProviderError{
		NewProviderError(ProviderStreamingA, &ToolUnavailableError{Binary: "spotdl", Err: exec.ErrNotFound}),
		NewProviderError(ProviderStreamingB, &ToolUnavailableError{Binary: "scdl", Err: exec.ErrNotFound}),
		NewProviderError(ProviderVideoPlatform, errors.New("yt-dlp failed: exit status 1")),
		NewProviderError(ProviderDirectHTTP, ErrNotURL),
	}

	err := NewExhaustedError("Intro to Systems", failures...)

	assert.Equal(t, []ProviderID{ProviderStreamingA, ProviderStreamingB, ProviderVideoPlatform, ProviderDirectHTTP}, err.Providers())
	assert.Equal(t, failures, err.Failures())

	msg := err.Error()
	assert.Contains(t, msg, "Intro to Systems")
	assert.Contains(t, msg, "4 attempt(s)")
	// causes are listed in priority order
	prev := -1
	for _, f := range failures {
		idx := strings.Index(msg, string(f.Provider)+":")
		require.GreaterOrEqual(t, idx, 0, "missing %s", f.Provider)
		assert.Greater(t, idx, prev)
		prev = idx
	}

	assert.True(t, errors.Is(err, ErrToolUnavailable))
	assert.True(t, errors.Is(err, ErrNotURL))
}

func TestExhaustedError_Empty(t *testing.T) {
	err := NewExhaustedError("nothing")

	assert.Empty(t, err.Failures())
	assert.Nil(t, err.Unwrap())
	assert.Contains(t, err.Error(), "no provider")
}

package infrastructure

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

func testNormalizeConfig() *domain.NormalizeConfig {
	return &domain.NormalizeConfig{FFmpegBinary: "ffmpeg", Bitrate: "192k", SampleRate: 44100}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input   string
		destDir string
		want    string
	}{
		{"/tmp/dl/talk42.wav", "/tmp/out", "/tmp/out/talk42.mp3"},
		{"/tmp/dl/lecture.final.m4a", "/tmp/out", "/tmp/out/lecture.final.mp3"},
		{"/tmp/dl/downloaded_file", "/tmp/out", "/tmp/out/downloaded_file.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), OutputPath(tt.input, tt.destDir))
		})
	}
}

func TestFFmpegNormalizer_Normalize(t *testing.T) {
	runner := newFakeRunner()
	n := NewFFmpegNormalizer(testNormalizeConfig(), runner, nil)

	file, err := n.Normalize(context.Background(), "/tmp/dl/talk42.wav", "/tmp/out")
	require.NoError(t, err)

	want := filepath.Join("/tmp/out", "talk42.mp3")
	assert.Equal(t, &domain.AcquiredFile{Path: want, Format: "mp3"}, file)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ffmpeg", calls[0].Binary)
	assert.Equal(t, []string{
		"-i", "/tmp/dl/talk42.wav", "-vn", "-ab", "192k", "-ar", "44100", "-y", want,
	}, calls[0].Args)
}

func TestFFmpegNormalizer_ToolFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.run = func(Command) error { return exitError(1) }
	n := NewFFmpegNormalizer(testNormalizeConfig(), runner, nil)

	_, err := n.Normalize(context.Background(), "/tmp/dl/talk42.wav", "/tmp/out")

	var convErr *domain.ConversionError
	require.True(t, errors.As(err, &convErr))
	assert.Equal(t, "/tmp/dl/talk42.wav", convErr.Input)
	assert.False(t, errors.Is(err, domain.ErrToolUnavailable))
}

func TestFFmpegNormalizer_MissingBinary(t *testing.T) {
	runner := newFakeRunner()
	runner.missing["ffmpeg"] = true
	n := NewFFmpegNormalizer(testNormalizeConfig(), runner, nil)

	_, err := n.Normalize(context.Background(), "/tmp/dl/talk42.wav", "/tmp/out")

	var convErr *domain.ConversionError
	assert.True(t, errors.As(err, &convErr))
	assert.True(t, errors.Is(err, domain.ErrToolUnavailable))
	assert.Empty(t, runner.Calls())
}

func TestFFmpegNormalizer_RefusesInPlace(t *testing.T) {
	runner := newFakeRunner()
	n := NewFFmpegNormalizer(testNormalizeConfig(), runner, nil)

	_, err := n.Normalize(context.Background(), "/tmp/out/talk42.mp3", "/tmp/out")

	var convErr *domain.ConversionError
	assert.True(t, errors.As(err, &convErr))
	assert.Empty(t, runner.Calls())
}

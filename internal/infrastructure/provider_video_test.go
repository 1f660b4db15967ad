package infrastructure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

func testVideoConfig() *domain.VideoPlatformConfig {
	return &domain.VideoPlatformConfig{
		Binary:               "yt-dlp",
		AudioQuality:         "0",
		SearchPrefix:         "ytsearch1:",
		PlaylistSearchPrefix: "ytsearch10:",
	}
}

// writeOnRun makes the fake tool leave name behind in the directory named by dirOf
func writeOnRun(dirOf func(Command) string, name string) func(Command) error {
	return func(cmd Command) error {
		return os.WriteFile(filepath.Join(dirOf(cmd), name), []byte("audio"), 0644)
	}
}

// outputDirOf is the directory of yt-dlp's -o template
func outputDirOf(cmd Command) string {
	return filepath.Dir(cmd.Args[len(cmd.Args)-2])
}

func assertNoStaging(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, stagingPattern))
	require.NoError(t, err)
	assert.Empty(t, matches, "staging directories are removed")
}

func TestVideoPlatformProvider_OverlappingAcquisitions(t *testing.T) {
	dest := t.TempDir()
	firstWritten := make(chan struct{})
	secondDone := make(chan struct{})

	runner := newFakeRunner()
	runner.run = func(cmd Command) error {
		dir := outputDirOf(cmd)
		if strings.Contains(cmd.Args[len(cmd.Args)-1], "first query") {
			if err := os.WriteFile(filepath.Join(dir, "first.mp3"), []byte("1"), 0644); err != nil {
				return err
			}
			close(firstWritten)
			<-secondDone
			return nil
		}
		<-firstWritten
		return os.WriteFile(filepath.Join(dir, "second.mp3"), []byte("2"), 0644)
	}
	p := NewVideoPlatformProvider(testVideoConfig(), runner, nil)

	var wg sync.WaitGroup
	var first *domain.AcquiredFile
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = p.Acquire(context.Background(), domain.NewTarget("first query"), dest)
	}()

	second, err := p.Acquire(context.Background(), domain.NewTarget("second query"), dest)
	close(secondDone)
	wg.Wait()

	require.NoError(t, err)
	require.NoError(t, firstErr)
	assert.Equal(t, filepath.Join(dest, "first.mp3"), first.Path)
	assert.Equal(t, filepath.Join(dest, "second.mp3"), second.Path)
	assertNoStaging(t, dest)
}

func TestVideoPlatformProvider_IgnoresOtherFilesInDestination(t *testing.T) {
	dest := t.TempDir()

	runner := newFakeRunner()
	runner.run = func(cmd Command) error {
		// another program drops audio into the destination tree during the run
		writeFile(t, filepath.Join(dest, "Podcasts", "other.mp3"), time.Now().Add(time.Minute))
		return os.WriteFile(filepath.Join(outputDirOf(cmd), "Lecture.m4a"), []byte("a"), 0644)
	}
	p := NewVideoPlatformProvider(testVideoConfig(), runner, nil)

	file, err := p.Acquire(context.Background(), domain.NewTarget("lecture"), dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "Lecture.m4a"), file.Path)
}

func TestVideoPlatformProvider_Expression(t *testing.T) {
	p := NewVideoPlatformProvider(testVideoConfig(), newFakeRunner(), nil)

	tests := []struct {
		input string
		want  string
	}{
		{"https://www.youtube.com/watch?v=abc", "https://www.youtube.com/watch?v=abc"},
		{"Intro to Systems lecture 3", "ytsearch1:Intro to Systems lecture 3"},
		{"Intro to Systems album", "ytsearch10:Intro to Systems album"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Expression(domain.NewTarget(tt.input)))
		})
	}
}

func TestVideoPlatformProvider_Args(t *testing.T) {
	config := testVideoConfig()
	config.EmbedThumbnail = true
	p := NewVideoPlatformProvider(config, newFakeRunner(), nil)

	args := p.Args(domain.NewTarget("Intro to Systems playlist"), "/tmp/out")

	assert.Equal(t, []string{
		"-f", "bestaudio",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "0",
		"--no-mtime",
		"--no-progress",
		"--embed-thumbnail",
		"--yes-playlist",
		"-o", filepath.Join("/tmp/out", "%(title)s.%(ext)s"),
		"ytsearch10:Intro to Systems playlist",
	}, args)

	args = p.Args(domain.NewTarget("https://youtu.be/abc"), "/tmp/out")
	assert.Contains(t, args, "--no-playlist")
	assert.Equal(t, "https://youtu.be/abc", args[len(args)-1])
}

func TestVideoPlatformProvider_CookieFile(t *testing.T) {
	cookies := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(cookies, []byte("# Netscape"), 0600))

	config := testVideoConfig()
	config.CookieFile = cookies
	p := NewVideoPlatformProvider(config, newFakeRunner(), nil)
	assert.Contains(t, p.Args(domain.NewTarget("x"), "/tmp/out"), cookies)

	config.CookieFile = filepath.Join(t.TempDir(), "absent.txt")
	assert.NotContains(t, p.Args(domain.NewTarget("x"), "/tmp/out"), "--cookies")
}

func TestVideoPlatformProvider_Acquire(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "older.mp3"), []byte("old"), 0644))

	runner := newFakeRunner()
	runner.run = writeOnRun(outputDirOf, "Lecture 3.mp3")
	p := NewVideoPlatformProvider(testVideoConfig(), runner, nil)

	file, err := p.Acquire(context.Background(), domain.NewTarget("Intro to Systems lecture 3"), dest)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "Lecture 3.mp3"), file.Path)
	assert.Equal(t, "mp3", file.Format)
	require.Len(t, runner.Calls(), 1)
	assert.Equal(t, "yt-dlp", runner.Calls()[0].Binary)
	assertNoStaging(t, dest)
}

func TestVideoPlatformProvider_ToolUnavailable(t *testing.T) {
	runner := newFakeRunner()
	runner.missing["yt-dlp"] = true
	p := NewVideoPlatformProvider(testVideoConfig(), runner, nil)

	_, err := p.Acquire(context.Background(), domain.NewTarget("anything"), t.TempDir())

	assert.ErrorIs(t, err, domain.ErrToolUnavailable)
	var provErr *domain.ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, domain.ProviderVideoPlatform, provErr.Provider)
	assert.Empty(t, runner.Calls())
}

func TestVideoPlatformProvider_ToolFails(t *testing.T) {
	runner := newFakeRunner()
	runner.run = func(Command) error { return exitError(1) }
	p := NewVideoPlatformProvider(testVideoConfig(), runner, nil)

	_, err := p.Acquire(context.Background(), domain.NewTarget("anything"), t.TempDir())

	var procErr *ProcessError
	assert.True(t, errors.As(err, &procErr))
	assert.Contains(t, err.Error(), "yt-dlp failed")
}

func TestVideoPlatformProvider_NoOutput(t *testing.T) {
	p := NewVideoPlatformProvider(testVideoConfig(), newFakeRunner(), nil)

	dest := t.TempDir()
	_, err := p.Acquire(context.Background(), domain.NewTarget("anything"), dest)

	assert.ErrorIs(t, err, domain.ErrNoOutput)
	assertNoStaging(t, dest)
}

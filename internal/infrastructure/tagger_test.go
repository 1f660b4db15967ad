package infrastructure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

func TestID3Tagger_Tag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Lecture 3.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not really mpeg frames"), 0644))

	tagger := NewID3Tagger(nil)
	require.NoError(t, tagger.Tag(domain.NewAcquiredFile(path), "Intro to Systems lecture 3"))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()

	assert.Equal(t, "Lecture 3", tag.Title())

	frames := tag.GetFrames(tag.CommonID("Comments"))
	require.Len(t, frames, 1)
	comment, ok := frames[0].(id3v2.CommentFrame)
	require.True(t, ok)
	assert.Equal(t, "lecture-fetch", comment.Description)
	assert.Equal(t, "Intro to Systems lecture 3", comment.Text)
}

func TestID3Tagger_KeepsExistingTitle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0644))

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	tag.SetTitle("Real Title")
	require.NoError(t, tag.Save())
	tag.Close()

	require.NoError(t, NewID3Tagger(nil).Tag(domain.NewAcquiredFile(path), ""))

	tag, err = id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()
	assert.Equal(t, "Real Title", tag.Title())
	assert.Empty(t, tag.GetFrames(tag.CommonID("Comments")))
}

func TestID3Tagger_SkipsOtherFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "talk.opus")
	require.NoError(t, os.WriteFile(path, []byte("opus"), 0644))

	require.NoError(t, NewID3Tagger(nil).Tag(domain.NewAcquiredFile(path), "talk"))
	require.NoError(t, NewID3Tagger(nil).Tag(nil, "talk"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "opus", string(data))
}

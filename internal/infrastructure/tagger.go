package infrastructure

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

// commentDescription identifies the comment frame this tool writes
const commentDescription = "lecture-fetch"

// ID3Tagger fills in missing ID3 metadata on mp3 results
type ID3Tagger struct {
	logger *zap.Logger
}

// NewID3Tagger creates a new tagger
func NewID3Tagger(logger *zap.Logger) *ID3Tagger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ID3Tagger{logger: logger}
}

// Tag sets the title from the file name when the file has none and records the raw input
// as a comment. Non-mp3 files are left alone.
func (t *ID3Tagger) Tag(file *domain.AcquiredFile, rawInput string) error {
	if file == nil || file.Format != domain.CanonicalFormat {
		return nil
	}

	tag, err := id3v2.Open(file.Path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open tags: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if strings.TrimSpace(tag.Title()) == "" {
		tag.SetTitle(strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path)))
	}

	if rawInput != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    "eng",
			Description: commentDescription,
			Text:        rawInput,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}

	t.logger.Debug("Tagged file", zap.String("path", file.Path), zap.String("title", tag.Title()))
	return nil
}

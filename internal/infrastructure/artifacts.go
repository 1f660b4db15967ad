package infrastructure

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

// audioExtensions are the files a provider tool may leave behind
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".opus": true,
	".ogg":  true,
	".flac": true,
	".wav":  true,
	".aac":  true,
}

// findAudio lists the audio files under a staging directory and picks the result:
// mp3 files win over other formats; among equals the most recently modified wins.
func findAudio(dir string) (best string, all []string, err error) {
	var bestInfo fs.FileInfo
	bestIsMP3 := false

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if d.IsDir() || !audioExtensions[ext] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		all = append(all, path)

		isMP3 := ext == "."+domain.CanonicalFormat
		switch {
		case best == "",
			isMP3 && !bestIsMP3,
			isMP3 == bestIsMP3 && info.ModTime().After(bestInfo.ModTime()):
			best, bestInfo, bestIsMP3 = path, info, isMP3
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if best == "" {
		return "", nil, domain.ErrNoOutput
	}
	return best, all, nil
}

// collectAudio moves every audio file out of staging into destDir and returns
// the new path of the chosen one. Existing files in destDir are never overwritten.
func collectAudio(staging, destDir string) (string, error) {
	best, all, err := findAudio(staging)
	if err != nil {
		return "", err
	}

	var result string
	for _, path := range all {
		moved, err := moveUnique(path, destDir)
		if err != nil {
			return "", err
		}
		if path == best {
			result = moved
		}
	}
	return result, nil
}

// moveUnique renames path into dir, suffixing " (n)" when the name is taken
func moveUnique(path, dir string) (string, error) {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for n := 0; n < 1000; n++ {
		candidate := filepath.Join(dir, name)
		if n > 0 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		}
		if _, err := os.Lstat(candidate); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if err := os.Rename(path, candidate); err != nil {
			return "", fmt.Errorf("failed to move %s: %w", name, err)
		}
		return candidate, nil
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

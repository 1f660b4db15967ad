package main

import (
	"fmt"
	"io"
	"time"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"

	"github.com/yourusername/lecture-fetch/internal/infrastructure"
)

// newProgressFunc draws a byte progress bar on stderr for each download
func newProgressFunc() infrastructure.ProgressFunc {
	return progressFuncTo(ansi.NewAnsiStderr())
}

func progressFuncTo(w io.Writer) infrastructure.ProgressFunc {
	return func(total int64, description string) io.Writer {
		return progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
			progressbar.OptionShowBytes(true),
			progressbar.OptionFullWidth(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
		)
	}
}

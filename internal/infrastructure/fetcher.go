package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/domain"
)

const copyBufferSize = 32 * 1024

// ErrUnexpectedStatus is returned by Download for non-2xx responses
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// ProgressFunc returns a writer that observes downloaded bytes.
// total is -1 when the server does not send a length.
type ProgressFunc func(total int64, description string) io.Writer

// Fetcher performs GET requests that survive rate limiting and transport failures
type Fetcher struct {
	client *http.Client
	config domain.FetchConfig
	sleep  Sleeper
	now    func() time.Time
	logger *zap.Logger
}

// NewFetcher creates a fetcher from config
func NewFetcher(config *domain.FetchConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: config.RequestTimeout},
		config: *config,
		sleep:  sleepContext,
		now:    time.Now,
		logger: logger,
	}
}

// WithClient replaces the HTTP client
func (f *Fetcher) WithClient(client *http.Client) *Fetcher {
	f.client = client
	return f
}

// WithSleeper replaces the backoff sleep
func (f *Fetcher) WithSleeper(sleep Sleeper) *Fetcher {
	f.sleep = sleep
	return f
}

// Fetch issues a GET for rawURL. 429 responses and transport errors are retried with
// doubling backoff until the configured attempt or elapsed-time limit is hit.
// Any other response, successful or not, is returned to the caller, who must close the body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	backoff := f.config.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	start := f.now()

	for attempt := 1; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
		if f.config.UserAgent != "" {
			req.Header.Set("User-Agent", f.config.UserAgent)
		}

		resp, err := f.client.Do(req)

		var cause error
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if !isTransient(err) {
				return nil, err
			}
			cause = err
		case resp.StatusCode == http.StatusTooManyRequests:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			cause = fmt.Errorf("rate limited: %s", resp.Status)
		default:
			return resp, nil
		}

		if f.exhausted(attempt, start, backoff) {
			return nil, fmt.Errorf("%w after %d attempt(s): %w", domain.ErrRetriesExhausted, attempt, cause)
		}

		f.logger.Warn("Transient fetch failure, backing off",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(cause))

		if err := f.sleep(ctx, backoff); err != nil {
			return nil, err
		}

		backoff *= 2
		if f.config.MaxBackoff > 0 && backoff > f.config.MaxBackoff {
			backoff = f.config.MaxBackoff
		}
	}
}

// exhausted reports whether another attempt after waiting backoff would break a limit
func (f *Fetcher) exhausted(attempt int, start time.Time, backoff time.Duration) bool {
	if f.config.MaxAttempts > 0 && attempt >= f.config.MaxAttempts {
		return true
	}
	if f.config.MaxElapsed > 0 && f.now().Sub(start)+backoff > f.config.MaxElapsed {
		return true
	}
	return false
}

// Download streams rawURL into path and returns the number of bytes written.
// A partial file is removed on failure.
func (f *Fetcher) Download(ctx context.Context, rawURL, path string, progress ProgressFunc) (int64, error) {
	resp, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	var dst io.Writer = file
	if progress != nil {
		if w := progress(resp.ContentLength, filepath.Base(path)); w != nil {
			dst = io.MultiWriter(file, w)
		}
	}

	n, err := io.CopyBuffer(dst, resp.Body, make([]byte, copyBufferSize))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return n, fmt.Errorf("failed to write %s: %w", path, err)
	}

	return n, nil
}

// isTransient reports whether a client error is a network-level failure worth retrying
func isTransient(err error) bool {
	// *url.Error satisfies net.Error itself, so judge what it wraps
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

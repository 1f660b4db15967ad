package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lecture-fetch/api/handlers"
	"github.com/yourusername/lecture-fetch/internal/app"
	"github.com/yourusername/lecture-fetch/internal/domain"
)

func TestPromptInput(t *testing.T) {
	var prompt bytes.Buffer
	input, err := promptInput(strings.NewReader("  Intro to Systems lecture 3 \n"), &prompt)

	require.NoError(t, err)
	assert.Equal(t, "Intro to Systems lecture 3", input)
	assert.Contains(t, prompt.String(), "URL or search query")

	input, err = promptInput(strings.NewReader("no newline"), &prompt)
	require.NoError(t, err)
	assert.Equal(t, "no newline", input)
}

func TestReadInputs(t *testing.T) {
	file := `# lectures to fetch
https://example.com/audio/talk42.wav

   Intro to Systems lecture 3
#https://example.com/skipped.mp3
Intro to Systems album
`
	inputs, err := readInputs(strings.NewReader(file))

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/audio/talk42.wav",
		"Intro to Systems lecture 3",
		"Intro to Systems album",
	}, inputs)
}

func TestRunInputs(t *testing.T) {
	var seen []string
	acquire := func(ctx context.Context, input string) batchItem {
		seen = append(seen, input)
		if input == "bad" {
			return batchItem{input: input, err: errors.New("all providers failed")}
		}
		return batchItem{input: input, path: "/tmp/" + input + ".mp3", provider: domain.ProviderDirectHTTP}
	}

	t.Run("continues after failure", func(t *testing.T) {
		seen = nil
		var reported []int
		items := runInputs(context.Background(), acquire, []string{"a", "bad", "c"}, false, func(i int, _ batchItem) {
			reported = append(reported, i)
		})

		assert.Equal(t, []string{"a", "bad", "c"}, seen)
		assert.Equal(t, []int{0, 1, 2}, reported)
		require.Len(t, items, 3)
		assert.Error(t, items[1].err)
	})

	t.Run("stop on error", func(t *testing.T) {
		seen = nil
		items := runInputs(context.Background(), acquire, []string{"a", "bad", "c"}, true, nil)

		assert.Equal(t, []string{"a", "bad"}, seen)
		assert.Len(t, items, 2)
	})

	t.Run("cancelled context", func(t *testing.T) {
		seen = nil
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		items := runInputs(ctx, acquire, []string{"a", "b"}, false, nil)

		assert.Empty(t, seen)
		assert.Empty(t, items)
	})
}

type stubAcquirer struct {
	result *app.Result
	err    error
	req    domain.AcquisitionRequest
	opts   app.AcquireOptions
}

func (s *stubAcquirer) Acquire(ctx context.Context, req domain.AcquisitionRequest, opts app.AcquireOptions) (*app.Result, error) {
	s.req = req
	s.opts = opts
	return s.result, s.err
}

func TestLocalAcquirer(t *testing.T) {
	acq := domain.NewAcquisition(domain.AcquisitionRequest{RawInput: "x"}, domain.Classify("x"))
	acq.MarkCompleted(domain.ProviderVideoPlatform, domain.NewAcquiredFile("/tmp/out/x.mp3"))
	stub := &stubAcquirer{result: &app.Result{Acquisition: acq, File: domain.NewAcquiredFile("/tmp/out/x.mp3")}}

	item := localAcquirer(stub, "/tmp/out", app.AcquireOptions{SkipExisting: true})(context.Background(), "x")

	assert.NoError(t, item.err)
	assert.Equal(t, "/tmp/out/x.mp3", item.path)
	assert.Equal(t, domain.ProviderVideoPlatform, item.provider)
	assert.Equal(t, "/tmp/out", stub.req.DestinationDir)
	assert.True(t, stub.opts.SkipExisting)

	stub.err = errors.New("boom")
	item = localAcquirer(stub, "", app.AcquireOptions{})(context.Background(), "x")
	assert.EqualError(t, item.err, "boom")
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	failed := printSummary(&out, []batchItem{
		{input: "https://example.com/a.wav", provider: domain.ProviderDirectHTTP, path: "/tmp/a.mp3"},
		{input: "Intro album", provider: domain.ProviderStreamingA, path: "/tmp/b.mp3", skipped: true},
		{input: "nothing", err: errors.New("no provider succeeded\nstreaming_a: tool unavailable")},
	})

	assert.Equal(t, 1, failed)
	text := out.String()
	assert.Contains(t, text, "STATUS")
	assert.Contains(t, text, "/tmp/a.mp3")
	assert.Contains(t, text, "skipped")
	assert.Contains(t, text, "no provider succeeded")
	assert.NotContains(t, text, "tool unavailable")
}

func TestPrintPlan(t *testing.T) {
	var out bytes.Buffer
	printPlan(&out, "Intro album", domain.Classify("Intro album"), domain.DefaultSearchOrder())

	text := out.String()
	assert.Contains(t, text, "search_query")
	assert.Contains(t, text, "playlist")
	assert.Contains(t, text, "streaming_a -> streaming_b -> video_platform -> direct_http")
}

func TestPrintResult(t *testing.T) {
	acq := domain.NewAcquisition(domain.AcquisitionRequest{RawInput: "x"}, domain.Classify("x"))
	acq.MarkCompleted(domain.ProviderStreamingB, domain.NewAcquiredFile("/tmp/x.mp3"))

	var out bytes.Buffer
	printResult(&out, &app.Result{Acquisition: acq, File: domain.NewAcquiredFile("/tmp/x.mp3")})
	assert.Equal(t, "Saved /tmp/x.mp3 (via streaming_b)\n", out.String())

	out.Reset()
	printResult(&out, &app.Result{Acquisition: acq, File: domain.NewAcquiredFile("/tmp/x.mp3"), Skipped: true})
	assert.Equal(t, "Already acquired: /tmp/x.mp3\n", out.String())
}

func TestPrintAcquisition(t *testing.T) {
	acq := domain.NewAcquisition(domain.AcquisitionRequest{RawInput: "Intro"}, domain.Classify("Intro"))
	acq.SetAttempts([]domain.Attempt{
		{Provider: domain.ProviderStreamingA, Error: "tool unavailable: spotdl"},
		{Provider: domain.ProviderStreamingB},
	})
	acq.MarkCompleted(domain.ProviderStreamingB, domain.NewAcquiredFile("/tmp/intro.mp3"))

	var out bytes.Buffer
	printAcquisition(&out, acq)

	text := out.String()
	assert.Contains(t, text, acq.ID)
	assert.Contains(t, text, "/tmp/intro.mp3")
	assert.Contains(t, text, "tool unavailable: spotdl")
	assert.Contains(t, text, "streaming_b")
}

func TestProgressFuncTo(t *testing.T) {
	var out bytes.Buffer
	w := progressFuncTo(&out)(10, "talk42.wav")
	require.NotNil(t, w)

	n, err := w.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Contains(t, out.String(), "talk42.wav")
}

func TestRemoteClient(t *testing.T) {
	var got handlers.AcquireRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		case "/api/v1/acquisitions":
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			if got.Input == "fail" {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte(`{"skipped":false,"error":"all providers failed"}`))
				return
			}
			w.Write([]byte(`{"file":{"path":"/srv/out/talk.mp3","format":"mp3"},"skipped":false}`))
		case "/api/v1/classify":
			w.Write([]byte(`{"input":"Intro album","classification":{"kind":"search_query","hint":"playlist"},"providers":["streaming_a","video_platform"]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newRemoteClient(server.URL + "/")
	ctx := context.Background()

	assert.True(t, client.Healthy(ctx))

	resp, err := client.Acquire(ctx, "https://example.com/talk.wav", "/srv/out", true)
	require.NoError(t, err)
	assert.Equal(t, "/srv/out/talk.mp3", resp.File.Path)
	assert.Equal(t, "https://example.com/talk.wav", got.Input)
	assert.Equal(t, "/srv/out", got.Destination)
	assert.True(t, got.SkipExisting)

	var out bytes.Buffer
	printRemoteResult(&out, resp)
	assert.Equal(t, "Saved /srv/out/talk.mp3 (via server)\n", out.String())

	resp, err = client.Acquire(ctx, "fail", "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all providers failed")
	assert.Equal(t, "all providers failed", resp.Error)

	plan, err := client.Classify(ctx, "Intro album")
	require.NoError(t, err)
	assert.Equal(t, domain.KindSearchQuery, plan.Classification.Kind)
	assert.Equal(t, []domain.ProviderID{domain.ProviderStreamingA, domain.ProviderVideoPlatform}, plan.Providers)
}

func TestRemoteClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := newRemoteClient(url)
	assert.False(t, client.Healthy(context.Background()))

	_, err := client.Acquire(context.Background(), "x", "", false)
	assert.ErrorContains(t, err, "not responding")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "Über...", truncate("Über Systeme", 7))
}

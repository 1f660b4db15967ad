package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/lecture-fetch/api/handlers"
)

// remoteClient talks to a running lecture-fetch-server
type remoteClient struct {
	baseURL string
	client  *http.Client
}

func newRemoteClient(baseURL string) *remoteClient {
	return &remoteClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Healthy checks if the server is responding to health checks
func (c *remoteClient) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Acquire posts one acquisition and waits for it to finish
func (c *remoteClient) Acquire(ctx context.Context, input, dest string, skipExisting bool) (*handlers.AcquireResponse, error) {
	if !c.Healthy(ctx) {
		return nil, fmt.Errorf("server at %s is not responding", c.baseURL)
	}

	var resp handlers.AcquireResponse
	status, err := c.post(ctx, "/api/v1/acquisitions", handlers.AcquireRequest{
		Input:        input,
		Destination:  dest,
		SkipExisting: skipExisting,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		if resp.Error == "" {
			resp.Error = http.StatusText(status)
		}
		return &resp, fmt.Errorf("server: %s", resp.Error)
	}
	return &resp, nil
}

// Classify asks the server how it would handle input
func (c *remoteClient) Classify(ctx context.Context, input string) (*handlers.ClassifyResponse, error) {
	var resp handlers.ClassifyResponse
	status, err := c.post(ctx, "/api/v1/classify", handlers.ClassifyRequest{Input: input}, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("server: %s", http.StatusText(status))
	}
	return &resp, nil
}

func (c *remoteClient) post(ctx context.Context, path string, payload, out interface{}) (int, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, truncate(string(body), 200))
		}
	}
	return resp.StatusCode, nil
}

func printRemoteResult(w io.Writer, resp *handlers.AcquireResponse) {
	if resp.File == nil {
		fmt.Fprintln(w, "No file returned")
		return
	}
	if resp.Skipped {
		fmt.Fprintf(w, "Already acquired: %s\n", resp.File.Path)
		return
	}
	provider := "server"
	if resp.Acquisition != nil {
		provider = string(resp.Acquisition.Provider)
	}
	fmt.Fprintf(w, "Saved %s (via %s)\n", resp.File.Path, provider)
}

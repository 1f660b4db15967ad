package infrastructure

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
)

// fakeRunner records commands instead of executing them
type fakeRunner struct {
	mu      sync.Mutex
	missing map[string]bool
	calls   []Command
	run     func(cmd Command) error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{missing: make(map[string]bool)}
}

func (f *fakeRunner) LookPath(binary string) (string, error) {
	if f.missing[binary] {
		return "", &exec.Error{Name: binary, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + binary, nil
}

func (f *fakeRunner) Run(ctx context.Context, cmd Command) error {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.run != nil {
		return f.run(cmd)
	}
	return nil
}

func (f *fakeRunner) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.calls...)
}

// exitError stands in for a tool exiting non-zero
func exitError(code int) error {
	return &ProcessError{Command: "fake", Output: "boom", Err: fmt.Errorf("exit status %d", code)}
}

package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// outputTailSize bounds how much tool output is kept for error messages
const outputTailSize = 4096

// Command is one external tool invocation
type Command struct {
	Label  string // shown in the process log header
	Binary string
	Args   []string
	Dir    string
}

// String returns the shell-escaped command line
func (c Command) String() string {
	return FormatCommand(c.Binary, c.Args...)
}

// CommandRunner runs external tools
type CommandRunner interface {
	// LookPath resolves binary on PATH
	LookPath(binary string) (string, error)

	// Run runs the command to completion
	Run(ctx context.Context, cmd Command) error
}

// ProcessError is a tool that ran and failed
type ProcessError struct {
	Command string
	Output  string
	Err     error
}

func (e *ProcessError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%v (command: %s)", e.Err, e.Command)
	}
	return fmt.Sprintf("%v (command: %s)\n%s", e.Err, e.Command, e.Output)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// ProcessRunner runs tools with exec, appending their combined output to a daily process log
type ProcessRunner struct {
	logsDir string
	timeout time.Duration
	logger  *zap.Logger
}

// NewProcessRunner creates a runner. An empty logsDir discards tool output;
// a zero timeout lets tools run until they exit.
func NewProcessRunner(logsDir string, timeout time.Duration, logger *zap.Logger) *ProcessRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessRunner{
		logsDir: logsDir,
		timeout: timeout,
		logger:  logger,
	}
}

// LookPath resolves binary on PATH
func (r *ProcessRunner) LookPath(binary string) (string, error) {
	return exec.LookPath(binary)
}

// Run runs cmd, killing it when ctx is done or the timeout passes
func (r *ProcessRunner) Run(ctx context.Context, c Command) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	logFile, err := r.openLogFile()
	if err != nil {
		return fmt.Errorf("failed to open process log: %w", err)
	}
	defer logFile.Close()

	cmdLine := c.String()
	writeLogHeader(logFile, c.Label, cmdLine)

	tail := newTailWriter(outputTailSize)
	out := io.MultiWriter(logFile, tail)

	cmd := exec.CommandContext(ctx, c.Binary, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = out
	cmd.Stderr = out

	r.logger.Debug("Running external tool",
		zap.String("tool", c.Label),
		zap.String("command", cmdLine))

	start := time.Now()
	err = cmd.Run()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: timed out after %s", err, r.timeout)
		}
		writeLogFooter(logFile, false, err.Error())
		r.logger.Debug("External tool failed",
			zap.String("tool", c.Label),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return &ProcessError{Command: cmdLine, Output: tail.String(), Err: err}
	}

	writeLogFooter(logFile, true, fmt.Sprintf("finished in %s", time.Since(start).Round(time.Millisecond)))
	return nil
}

// openLogFile opens today's process log, or a sink when no logs directory is configured
func (r *ProcessRunner) openLogFile() (io.WriteCloser, error) {
	if r.logsDir == "" {
		return nopWriteCloser{io.Discard}, nil
	}
	if err := os.MkdirAll(r.logsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}
	path := filepath.Join(r.logsDir, "process-"+time.Now().Format("20060102")+".log")
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func writeLogHeader(w io.Writer, label, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] %s ===\n", timestamp, label)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

func writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(w, "=== END ===\n\n")
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// tailWriter keeps the last max bytes written to it
type tailWriter struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func newTailWriter(max int) *tailWriter {
	return &tailWriter{max: max}
}

func (t *tailWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailWriter) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

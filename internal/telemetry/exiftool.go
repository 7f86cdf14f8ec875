package telemetry

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default time allowed for a single exiftool run
	DefaultTimeout = 10 * time.Second

	// DefaultRetries is the default number of retries after a transient failure
	DefaultRetries = 1

	// waitDelay bounds how long Wait blocks on pipes after the process is killed
	waitDelay = time.Second
)

// WithTimeout sets the per-attempt timeout
func WithTimeout(timeout time.Duration) func(e *ExifTool) {
	return func(e *ExifTool) {
		e.timeout = timeout
	}
}

// WithRetries sets the number of retries after a transient failure
func WithRetries(retries uint8) func(e *ExifTool) {
	return func(e *ExifTool) {
		e.retries = retries
	}
}

// WithLogger sets the logger for the provider
func WithLogger(logger *slog.Logger) func(e *ExifTool) {
	return func(e *ExifTool) {
		e.logger = logger.With(slog.String("provider", "exiftool"))
	}
}

// ExifTool reads image metadata by running the exiftool binary and parsing its
// "Key : Value" output.
type ExifTool struct {
	binary  string
	timeout time.Duration
	retries uint8
	logger  *slog.Logger
}

// NewExifTool creates an ExifTool provider running the given binary
func NewExifTool(binary string, options ...func(e *ExifTool)) *ExifTool {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	e := ExifTool{
		binary:  binary,
		timeout: DefaultTimeout,
		retries: DefaultRetries,
		logger:  logger,
	}

	for _, option := range options {
		option(&e)
	}

	return &e
}

// Metadata runs exiftool for the image. Transient failures are retried up to
// the configured number of times unless ctx is done.
func (e *ExifTool) Metadata(ctx context.Context, path string) (Record, error) {
	var err error
	for attempt := 0; attempt <= int(e.retries); attempt++ {
		var rec Record
		if rec, err = e.read(ctx, path); err == nil {
			return rec, nil
		}

		if !errors.Is(err, ErrTransient) || ctx.Err() != nil {
			return nil, err
		}

		e.logger.Warn("metadata read failed",
			slog.String("image", path),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}

	return nil, err
}

func (e *ExifTool) read(ctx context.Context, path string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, e.binary, path)
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("error creating stdout pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error starting %s: %w", e.binary, err)
		}
		return nil, fmt.Errorf("%w: error starting %s: %w", ErrTransient, e.binary, err)
	}

	rec, scanErr := ParseExifToolOutput(stdout)
	waitErr := cmd.Wait()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: exiftool timed out after %s", ErrTransient, e.timeout)
	}
	if scanErr != nil {
		return nil, fmt.Errorf("%w: error reading stdout: %w", ErrTransient, scanErr)
	}
	if waitErr != nil {
		// exiftool reports unreadable or missing files through its exit status
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("exiftool exited with error: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("%w: error waiting for exiftool: %w", ErrTransient, waitErr)
	}

	return rec, nil
}

// ParseExifToolOutput reads "Key : Value" lines into a Record. Each line is
// split on its first colon and both sides are trimmed; lines without a colon
// are skipped. A repeated key keeps its last value.
func ParseExifToolOutput(r io.Reader) (Record, error) {
	rec := make(Record)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		rec[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return rec, nil
}

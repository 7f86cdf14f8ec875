package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// DefaultTimeout is the default timeout of a single inference request
const DefaultTimeout = 30 * time.Second

// ErrService is returned when the inference service responds with a non-200 status
var ErrService = errors.New("detection service error")

// WithHTTPClient sets the HTTP client used for requests
func WithHTTPClient(client *http.Client) func(d *HTTPDetector) {
	return func(d *HTTPDetector) {
		d.client = client
	}
}

// WithTimeout sets the per-request timeout. The HTTP client is left untouched.
func WithTimeout(timeout time.Duration) func(d *HTTPDetector) {
	return func(d *HTTPDetector) {
		d.timeout = timeout
	}
}

// WithLogger sets the logger for the detector
func WithLogger(logger *slog.Logger) func(d *HTTPDetector) {
	return func(d *HTTPDetector) {
		d.logger = logger.With(slog.String("detector", d.baseURL))
	}
}

// HTTPDetector sends images to a YOLO inference service.
//
// The service accepts a JPEG as multipart field "image" on POST /detect and
// replies with {"detections": [{"bbox": [cx, cy, w, h], "confidence": c, "class_id": k}]}.
type HTTPDetector struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

type detectResponse struct {
	Detections []Detection `json:"detections"`
}

// NewHTTPDetector creates a detector for the service at baseURL
func NewHTTPDetector(baseURL string, options ...func(d *HTTPDetector)) *HTTPDetector {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	d := HTTPDetector{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		timeout: DefaultTimeout,
		logger:  logger,
	}

	for _, option := range options {
		option(&d)
	}

	return &d
}

// Detect posts img to the service and returns the decoded detections
func (d *HTTPDetector) Detect(ctx context.Context, img image.Image) ([]Detection, error) {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if err = imaging.Encode(part, img, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	if err = writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out detectResponse
	if err = json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	d.logger.Debug("detection complete",
		slog.Int("detections", len(out.Detections)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return out.Detections, nil
}

// HealthCheck verifies that the service is reachable
func (d *HTTPDetector) HealthCheck(ctx context.Context) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("detection service not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health status %d", ErrService, resp.StatusCode)
	}
	return nil
}

// withTimeout bounds ctx by the request timeout; zero disables it
func (d *HTTPDetector) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

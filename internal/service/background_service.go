package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"time"

	"studio/internal/editor"
	"studio/internal/render"
)

// ─────────────────────────────────────────────────────────────
// Background Service: background removal for image nodes
// ─────────────────────────────────────────────────────────────

var (
	// ErrRemovalUnavailable is returned when no removal endpoint is configured.
	ErrRemovalUnavailable = errors.New("background removal is not configured")
	// ErrAlreadyProcessing rejects a second request for a node in flight.
	ErrAlreadyProcessing = editor.ErrAlreadyProcessing
)

// EventBackgroundRemoved is emitted with the node id after a result is
// swapped in.
const EventBackgroundRemoved = "background:removed"

// BackgroundOptions configure the removal endpoint. The service POSTs the
// image as PNG and expects a PNG back.
type BackgroundOptions struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// BackgroundService removes image backgrounds through an HTTP service.
type BackgroundService struct {
	opts    BackgroundOptions
	client  *http.Client
	emitter EventEmitter
	jobs    nodeJobs
}

// NewBackgroundService creates a BackgroundService. client may be nil.
func NewBackgroundService(opts BackgroundOptions, client *http.Client, emitter EventEmitter) *BackgroundService {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if client == nil {
		client = &http.Client{}
	}
	return &BackgroundService{opts: opts, client: client, emitter: emitter}
}

// Available reports whether an endpoint is configured.
func (s *BackgroundService) Available() bool {
	return s.opts.Endpoint != ""
}

// Remove strips the background of the selected image node. The node's
// processing flag is cleared whatever the outcome. A result for a node that
// left the scene meanwhile is dropped.
func (s *BackgroundService) Remove(ctx context.Context, ed *editor.Editor) error {
	if !s.Available() {
		return ErrRemovalUnavailable
	}
	job, err := ed.BeginProcessing()
	if err != nil {
		return fmt.Errorf("remove background: %w", err)
	}
	defer ed.EndProcessing(job)

	if !s.jobs.begin(job.NodeID) {
		return fmt.Errorf("remove background: %w", ErrAlreadyProcessing)
	}
	defer s.jobs.end(job.NodeID)

	if job.Bitmap == nil {
		return fmt.Errorf("remove background: image %s is not loaded", job.NodeID)
	}
	out, err := s.call(ctx, job.Bitmap)
	if err != nil {
		return fmt.Errorf("remove background: %w", err)
	}
	uri, err := render.DataURI(out)
	if err != nil {
		return fmt.Errorf("remove background: %w", err)
	}

	if err := ed.ApplyProcessed(job, out, uri); err != nil {
		if errors.Is(err, editor.ErrStale) {
			log.Printf("[background] node %s left the scene, result dropped", job.NodeID)
			return nil
		}
		return fmt.Errorf("remove background: %w", err)
	}
	s.emitter.Emit(ctx, EventBackgroundRemoved, job.NodeID)
	return nil
}

func (s *BackgroundService) call(ctx context.Context, img image.Image) (image.Image, error) {
	var body bytes.Buffer
	if err := render.PNG(img, &body); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.Endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "image/png")
	if s.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.opts.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("removal service: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	out, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("removal service: decode result: %w", err)
	}
	return out, nil
}

// Processing reports whether a removal for nodeID is in flight.
func (s *BackgroundService) Processing(nodeID string) bool {
	return s.jobs.busy(nodeID)
}

// WaitRunning blocks until in-flight removals finish or ctx is cancelled.
func (s *BackgroundService) WaitRunning(ctx context.Context) {
	if !s.jobs.drain(ctx) {
		log.Printf("[background] shutdown with removals still running")
	}
}

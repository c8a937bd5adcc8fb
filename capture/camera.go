package capture

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"sync"
	"time"
)

// CameraState is the lifecycle state of a Camera.
type CameraState int

const (
	StateIdle CameraState = iota
	StateAcquiring
	StateReady
	StateFailed
)

func (s CameraState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

const (
	// defaultReadyTimeout bounds the wait for the stream's first decodable
	// frame. When it elapses and the stream still reports itself active,
	// the camera force-transitions to ready rather than sticking in
	// acquiring forever.
	defaultReadyTimeout = 3 * time.Second
	// defaultJPEGQuality matches an encoding quality of 0.8.
	defaultJPEGQuality = 80
)

// ErrNotReady is returned by Capture when the camera is not in the ready state.
var ErrNotReady = errors.New("camera is not ready")

// Camera drives one video device through the acquisition lifecycle
// {idle, acquiring, ready, failed} and snapshots stills from it.
//
// The device handle is exclusively owned: a previous stream is always
// released before a new acquisition is attempted, and every exit path
// (capture, stop, failure) releases it.
type Camera struct {
	mu           sync.Mutex
	device       Device
	constraints  Constraints
	readyTimeout time.Duration
	quality      int

	state   CameraState
	stream  Stream
	lastErr error
}

// CameraOption configures a Camera.
type CameraOption func(*Camera)

// WithReadyTimeout overrides the readiness fallback window.
func WithReadyTimeout(d time.Duration) CameraOption {
	return func(c *Camera) { c.readyTimeout = d }
}

// WithConstraints overrides the requested resolution.
func WithConstraints(cs Constraints) CameraOption {
	return func(c *Camera) { c.constraints = cs }
}

// WithJPEGQuality overrides the snapshot encoding quality (1..100).
func WithJPEGQuality(q int) CameraOption {
	return func(c *Camera) { c.quality = q }
}

// NewCamera creates an idle camera over the given device.
func NewCamera(device Device, opts ...CameraOption) *Camera {
	c := &Camera{
		device:       device,
		constraints:  DefaultConstraints(),
		readyTimeout: defaultReadyTimeout,
		quality:      defaultJPEGQuality,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Camera) State() CameraState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure that put the camera into the failed state, if any.
func (c *Camera) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Start acquires the device and waits for readiness. Any previously held
// stream is released first. On failure the returned error is a classified
// *DeviceError and the camera ends in the failed state; the user may call
// Start again to retry.
func (c *Camera) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.stream != nil {
		// Release precedes re-acquire; never hold two device handles.
		c.stream.Close()
		c.stream = nil
	}
	c.state = StateAcquiring
	c.lastErr = nil
	device := c.device
	constraints := c.constraints
	timeout := c.readyTimeout
	c.mu.Unlock()

	stream, err := device.Acquire(ctx, constraints)
	if err != nil {
		err = classify(err)
		c.fail(err)
		return err
	}

	// Readiness: the feed must produce a decodable frame. The signal is
	// unreliable in some environments, so after the timeout window an
	// active stream is forced to ready instead of waiting forever.
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	_, probeErr := stream.Frame(probeCtx)
	cancel()
	if probeErr != nil && !stream.Active() {
		stream.Close()
		err := classify(probeErr)
		c.fail(err)
		return err
	}

	c.mu.Lock()
	c.stream = stream
	c.state = StateReady
	c.mu.Unlock()
	return nil
}

// Capture snapshots the current frame as a JPEG still at the native frame
// resolution. Exactly one still is produced per call. On success the device
// stream is released and the camera returns to idle.
func (c *Camera) Capture(ctx context.Context) (SingleImage, error) {
	c.mu.Lock()
	if c.state != StateReady || c.stream == nil {
		c.mu.Unlock()
		return SingleImage{}, ErrNotReady
	}
	stream := c.stream
	quality := c.quality
	c.mu.Unlock()

	frame, err := stream.Frame(ctx)
	if err != nil {
		c.Stop()
		return SingleImage{}, classify(err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: quality}); err != nil {
		c.Stop()
		return SingleImage{}, err
	}

	c.Stop()
	return SingleImage{Data: buf.Bytes(), MIMEType: "image/jpeg"}, nil
}

// Stop releases the device stream unconditionally and returns the camera to
// idle. Safe to call on every exit path, any number of times.
func (c *Camera) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
	c.state = StateIdle
	c.lastErr = nil
}

func (c *Camera) fail(err error) {
	c.mu.Lock()
	c.state = StateFailed
	c.lastErr = err
	c.stream = nil
	c.mu.Unlock()
}

// classify wraps an arbitrary acquisition error into a *DeviceError,
// preserving an existing classification.
func classify(err error) error {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr
	}
	return &DeviceError{Kind: KindUnknown, Message: err.Error()}
}

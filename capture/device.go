package capture

import (
	"context"
	"fmt"
	"image"
)

// Constraints describes the requested video resolution. The device may
// deliver anything between minimum and ideal.
type Constraints struct {
	IdealWidth  int
	IdealHeight int
	MinWidth    int
	MinHeight   int
}

// DefaultConstraints returns the standard capture resolution request:
// ideal 640x480, minimum 320x240.
func DefaultConstraints() Constraints {
	return Constraints{IdealWidth: 640, IdealHeight: 480, MinWidth: 320, MinHeight: 240}
}

// ErrorKind classifies a device acquisition failure. Each kind carries a
// distinct user-facing message; they are never conflated.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindPermissionDenied
	KindDeviceNotFound
	KindDeviceBusy
	KindUnsupported
)

// DeviceError is a classified camera acquisition failure. None are fatal;
// the user may retry.
type DeviceError struct {
	Kind    ErrorKind
	Message string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device: %s", e.UserMessage())
}

// UserMessage returns the message to surface for this failure.
func (e *DeviceError) UserMessage() string {
	switch e.Kind {
	case KindPermissionDenied:
		return "camera permission denied; please allow access to the camera"
	case KindDeviceNotFound:
		return "no camera found on this device"
	case KindDeviceBusy:
		return "camera is in use by another application"
	case KindUnsupported:
		return "camera capture is not supported in this environment"
	}
	if e.Message != "" {
		return fmt.Sprintf("camera error: %s", e.Message)
	}
	return "camera error: unknown error"
}

// Device grants exclusive access to a video input. Implementations return a
// *DeviceError from Acquire so failures stay classifiable.
type Device interface {
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is an open video feed. The handle is owned by exactly one capture
// component at a time and must be closed on every exit path.
type Stream interface {
	// Frame blocks until the next decodable frame or ctx expiry.
	Frame(ctx context.Context) (image.Image, error)
	// Active reports whether the underlying feed is still delivering,
	// even if no decodable frame has been observed yet.
	Active() bool
	// Close stops the feed and releases the device. Idempotent.
	Close() error
}

// Unsupported returns a Device whose acquisition always fails with
// KindUnsupported. It is the stand-in for environments with no camera
// backend at all.
func Unsupported() Device {
	return unsupportedDevice{}
}

type unsupportedDevice struct{}

func (unsupportedDevice) Acquire(context.Context, Constraints) (Stream, error) {
	return nil, &DeviceError{Kind: KindUnsupported}
}

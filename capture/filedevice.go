package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileDevice is a Device fed by image files in a directory, in file-name
// order. It stands in for a hardware camera in headless environments and in
// tests: each file plays the role of one video frame.
type FileDevice struct {
	dir string
}

var _ Device = (*FileDevice)(nil)

// NewFileDevice creates a device over the given directory of JPEG/PNG frames.
func NewFileDevice(dir string) *FileDevice {
	return &FileDevice{dir: dir}
}

// Acquire opens the directory as a frame stream. Failures are classified:
// a missing directory maps to device-not-found, a permission failure to
// permission-denied, anything else stays unknown with the underlying message.
func (d *FileDevice) Acquire(ctx context.Context, _ Constraints) (Stream, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return nil, &DeviceError{Kind: KindDeviceNotFound, Message: err.Error()}
		case os.IsPermission(err):
			return nil, &DeviceError{Kind: KindPermissionDenied, Message: err.Error()}
		}
		return nil, &DeviceError{Kind: KindUnknown, Message: err.Error()}
	}

	var frames []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".jpg", ".jpeg", ".png":
			frames = append(frames, filepath.Join(d.dir, e.Name()))
		}
	}
	if len(frames) == 0 {
		return nil, &DeviceError{Kind: KindUnknown, Message: fmt.Sprintf("no frames in %s", d.dir)}
	}
	sort.Strings(frames)
	return &fileStream{frames: frames}, nil
}

// fileStream cycles through the frame files until closed.
type fileStream struct {
	mu     sync.Mutex
	frames []string
	next   int
	closed bool
}

func (s *fileStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("stream closed")
	}
	path := s.frames[s.next%len(s.frames)]
	s.next++

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding frame %s: %w", path, err)
	}
	return img, nil
}

func (s *fileStream) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *fileStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

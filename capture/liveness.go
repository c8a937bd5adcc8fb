package capture

import (
	"context"
	"errors"
)

// Liveness flow steps.
const (
	LivenessStepFirst  = 1
	LivenessStepSecond = 2
)

// ErrPairIncomplete is returned by Pair before both captures exist.
var ErrPairIncomplete = errors.New("liveness pair incomplete")

// StepInstruction returns what the subject should do before the given step.
// The client does not judge liveness itself; it only guarantees two distinct
// capture events and tells the subject to move between them.
func StepInstruction(step int) string {
	if step == LivenessStepFirst {
		return "look straight at the camera with a neutral expression"
	}
	return "blink or turn your head slightly to show you are a live subject"
}

// LivenessFlow produces a LivenessPair through two sequential captures.
// The second capture path is unreachable until the first image is locked,
// so a pair can never contain a duplicated frame.
type LivenessFlow struct {
	camera *Camera
	imageA *SingleImage
	imageB *SingleImage
}

// NewLivenessFlow creates a flow over the given camera.
func NewLivenessFlow(camera *Camera) *LivenessFlow {
	return &LivenessFlow{camera: camera}
}

// Step returns the capture step the flow is waiting on. After both captures
// it keeps reporting the second step; Complete distinguishes the done state.
func (f *LivenessFlow) Step() int {
	if f.imageA == nil {
		return LivenessStepFirst
	}
	return LivenessStepSecond
}

// Complete reports whether both captures exist.
func (f *LivenessFlow) Complete() bool {
	return f.imageA != nil && f.imageB != nil
}

// CaptureNext runs the camera through start-ready-capture for the current
// step and locks the result. Image A must be locked before this method will
// ever write image B.
func (f *LivenessFlow) CaptureNext(ctx context.Context) error {
	if f.Complete() {
		return errors.New("both captures already taken")
	}
	if err := f.camera.Start(ctx); err != nil {
		return err
	}
	img, err := f.camera.Capture(ctx)
	if err != nil {
		return err
	}
	if f.imageA == nil {
		f.imageA = &img
		return nil
	}
	f.imageB = &img
	return nil
}

// Pair returns the completed liveness pair. It fails until both captures
// exist; a single captured image can never yield a pair.
func (f *LivenessFlow) Pair() (LivenessPair, error) {
	if !f.Complete() {
		return LivenessPair{}, ErrPairIncomplete
	}
	return LivenessPair{ImageA: *f.imageA, ImageB: *f.imageB}, nil
}

// Reset discards both captures and returns the flow to the first step.
func (f *LivenessFlow) Reset() {
	f.imageA = nil
	f.imageB = nil
	f.camera.Stop()
}

// Package capture produces normalized biometric image payloads from either a
// live camera device or a file upload, with device-error translation and a
// two-step liveness flow.
package capture

// SingleImage is one still image ready for transmission. It exists only
// until submitted or discarded; it is never persisted.
type SingleImage struct {
	Data     []byte
	MIMEType string
}

// LivenessPair holds two stills from two materially distinct capture events.
// Pairs are only obtainable through a LivenessFlow, which locks image A
// before the capture path for image B becomes reachable.
type LivenessPair struct {
	ImageA SingleImage
	ImageB SingleImage
}

package mockapi

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

// minFaceDim is the smallest image side length the detector accepts. Tiny
// images cannot hold a usable face crop.
const minFaceDim = 48

var (
	errNoFace   = errors.New("no face detected")
	errNoMotion = errors.New("no motion between frames")
)

// faceTemplate is the stored enrollment artifact. The stand-in keeps a
// digest of the enrollment image instead of a real embedding.
type faceTemplate struct {
	Digest [32]byte
	Width  int
	Height int
}

// detectFace decodes the image and applies the size floor. Anything that is
// not a decodable JPEG or PNG of a plausible size counts as "no face".
func detectFace(data []byte) (*faceTemplate, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errNoFace
	}
	if cfg.Width < minFaceDim || cfg.Height < minFaceDim {
		return nil, errNoFace
	}
	return &faceTemplate{
		Digest: sha256.Sum256(data),
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// checkLiveness accepts a pair of frames when both hold a face and the
// frames are not byte-identical. A frozen picture held to the camera fails.
func checkLiveness(frameA, frameB []byte) error {
	if _, err := detectFace(frameA); err != nil {
		return err
	}
	if _, err := detectFace(frameB); err != nil {
		return err
	}
	if bytes.Equal(frameA, frameB) {
		return errNoMotion
	}
	return nil
}

package capture

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadBytes is the upload size cap: 5 MB.
const MaxUploadBytes = 5 * 1024 * 1024

// allowedUploadTypes is the MIME allow-list for uploaded biometric images.
var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ValidationError is a client-side upload rejection. It never reaches the
// network layer.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateUpload checks an uploaded file against the MIME allow-list and the
// size cap, sniffing the content rather than trusting the file name. On
// success it returns the normalized payload for transmission.
func ValidateUpload(data []byte) (SingleImage, error) {
	if len(data) == 0 {
		return SingleImage{}, &ValidationError{Message: "file is empty"}
	}
	if len(data) > MaxUploadBytes {
		return SingleImage{}, &ValidationError{
			Message: fmt.Sprintf("file too large: maximum is %d MB", MaxUploadBytes/(1024*1024)),
		}
	}
	mtype := mimetype.Detect(data)
	if !allowedUploadTypes[mtype.String()] {
		return SingleImage{}, &ValidationError{
			Message: fmt.Sprintf("unsupported format %q: use JPEG or PNG", mtype.String()),
		}
	}
	return SingleImage{Data: data, MIMEType: mtype.String()}, nil
}

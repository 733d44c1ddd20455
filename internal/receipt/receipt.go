package receipt

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrNoReceipts is returned when the receipt folder holds no supported files
	ErrNoReceipts = errors.New("no receipt files found")

	// ErrUnsupportedExtension is returned for files whose extension has no known MIME type
	ErrUnsupportedExtension = errors.New("unsupported file extension")

	// ErrFolderNotFound is returned when the receipt folder does not exist
	ErrFolderNotFound = errors.New("receipt folder does not exist")
)

// mimeTypes maps supported (lowercase) extensions to the MIME type sent to the model
// and used for the bill upload
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

// SupportedExtensions lists the extensions picked up during discovery
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".pdf"}

// Receipt is a single receipt file loaded from the folder
type Receipt struct {
	Path     string
	Filename string
	MimeType string
	Data     []byte
}

// MimeTypeFor resolves the MIME type of a receipt from its file extension
func MimeTypeFor(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mimeType, ok := mimeTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
	return mimeType, nil
}

// IsSupported reports whether the file extension is one we can process
func IsSupported(path string) bool {
	_, err := MimeTypeFor(path)
	return err == nil
}

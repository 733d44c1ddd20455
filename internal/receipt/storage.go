package receipt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Storage defines the interface for reading receipt files
type Storage interface {
	// Discover returns the paths of all supported receipt files
	Discover() ([]string, error)

	// Load reads a receipt file and resolves its MIME type
	Load(path string) (*Receipt, error)
}

// Folder implements the Storage interface using a local directory
type Folder struct {
	basePath string
}

// NewFolder creates a new Folder instance
func NewFolder(basePath string) *Folder {
	return &Folder{
		basePath: basePath,
	}
}

// Path returns the folder location
func (f *Folder) Path() string {
	return f.basePath
}

// Discover lists supported receipt files in filename order.
// Only the top level of the folder is scanned.
func (f *Folder) Discover() ([]string, error) {
	info, err := os.Stat(f.basePath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, f.basePath)
	}

	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		return nil, fmt.Errorf("reading receipt folder: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsSupported(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(f.basePath, entry.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %q (supported: %v)", ErrNoReceipts, f.basePath, SupportedExtensions)
	}
	return paths, nil
}

// Load reads a receipt from disk
func (f *Folder) Load(path string) (*Receipt, error) {
	mimeType, err := MimeTypeFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	return &Receipt{
		Path:     path,
		Filename: filepath.Base(path),
		MimeType: mimeType,
		Data:     data,
	}, nil
}

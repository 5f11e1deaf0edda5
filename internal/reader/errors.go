package reader

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNotFound is returned when the input path does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrUnsupportedEncoding is returned when no candidate encoding decodes the file.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	// ErrUnsupportedStructure covers bad table indices, unknown sheets and unexpected layouts.
	ErrUnsupportedStructure = errors.New("unsupported structure")
	// ErrUnsupportedExtension is returned when no reader handles a file extension.
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	// ErrEmptyTable is returned when a file holds no table at all.
	ErrEmptyTable = errors.New("no table data")
)

// checkFile fails with ErrNotFound for missing paths and rejects directories.
func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrUnsupportedStructure, path)
	}
	return nil
}

func indexOutOfRange(kind string, idx, found int) error {
	if found == 0 {
		return fmt.Errorf("%w: %s index %d out of range, found 0 %s(s)", ErrUnsupportedStructure, kind, idx, kind)
	}
	return fmt.Errorf("%w: %s index %d out of range, found %d %s(s) (valid indices: 0-%d)",
		ErrUnsupportedStructure, kind, idx, found, kind, found-1)
}

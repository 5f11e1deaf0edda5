package textenc

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// compressionExts are the suffixes ReadFile decompresses transparently.
var compressionExts = []string{".gz", ".zst", ".xz"}

// BaseExt returns the lowercase extension of path after stripping a compression suffix,
// so "data.csv.gz" yields ".csv".
func BaseExt(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range compressionExts {
		if ext == c {
			return strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
		}
	}
	return ext
}

// Stem returns the file name without directory, compression suffix or extension.
func Stem(path string) string {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	for _, c := range compressionExts {
		if ext == c {
			name = strings.TrimSuffix(name, filepath.Ext(name))
			break
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ReadFile reads the whole file at path, decompressing .gz, .zst and .xz files.
// The returned error wraps os.ErrNotExist when the path is missing.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	case ".zst":
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd: %w", err)
		}
		defer dec.Close()
		r = dec
	case ".xz":
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open xz: %w", err)
		}
		r = xr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

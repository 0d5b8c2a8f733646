// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Local is a filesystem data source that opens files from the local disk and
// decodes them to UTF-8.
type Local struct {
	path string
	enc  encoding.Encoding // nil means the file is already UTF-8
}

// NewLocal returns a Local data source bound to path. encodingName selects
// the on-disk text encoding; see LookupEncoding for accepted names.
func NewLocal(path, encodingName string) (*Local, error) {
	enc, err := LookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	return &Local{path: path, enc: enc}, nil
}

// Path returns the bound filesystem path.
func (l *Local) Path() string { return l.path }

// LookupEncoding maps a config encoding name to a decoder. "", "utf-8" and
// "utf8" return nil (no decoding needed).
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// Open opens the configured path for reading.
//
// Behavior:
//   - If ctx is already done, Open returns the context error without touching
//     the filesystem.
//   - Filesystem errors are wrapped with the path while still permitting
//     errors.Is checks (e.g., errors.Is(err, os.ErrNotExist)).
//   - For non-UTF-8 encodings the returned reader decodes on the fly; Close
//     closes the underlying file.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	if l.enc == nil {
		return f, nil
	}
	return decodedFile{Reader: l.enc.NewDecoder().Reader(f), f: f}, nil
}

type decodedFile struct {
	io.Reader
	f *os.File
}

func (d decodedFile) Close() error { return d.f.Close() }

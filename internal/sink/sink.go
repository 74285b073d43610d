// Package sink hands downloaded files over to the host application.
package sink

import (
	"fmt"

	"github.com/spf13/afero"
)

// OpenFunc receives the path of a freshly written file and asks the host
// to open or import it.
type OpenFunc func(path string) error

// TempSink writes downloaded bytes to a temporary file and passes the
// resulting path to the host's opener.
type TempSink struct {
	fs   afero.Fs
	dir  string
	open OpenFunc
}

// New builds a TempSink on the given filesystem. An empty dir uses the
// filesystem's temp directory.
func New(fs afero.Fs, dir string, open OpenFunc) *TempSink {
	return &TempSink{fs: fs, dir: dir, open: open}
}

// Open writes data to a temp file whose name ends in the suggested file
// name, so the host can recognize the file type, then invokes the opener.
func (s *TempSink) Open(name string, data []byte) error {
	file, err := afero.TempFile(s.fs, s.dir, "thingscout-*-"+name)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	path := file.Name()

	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	if s.open == nil {
		return nil
	}
	if err := s.open(path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	return nil
}

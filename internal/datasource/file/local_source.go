// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Local opens a catalog export from the local disk.
type Local struct{ path string }

// NewLocal returns a Local source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

func (l *Local) String() string { return l.path }

// Open returns the file for reading. A context that is already done
// short-circuits before touching the filesystem. Directories are rejected
// here so the failure names the path instead of surfacing later as a read
// error inside the CSV parser.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", l.path)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "stat %s", l.path)
	}
	if st.IsDir() {
		_ = f.Close()
		return nil, errors.Errorf("open %s: is a directory", l.path)
	}
	return f, nil
}

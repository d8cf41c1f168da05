// Package datasource resolves a source location to something that can be
// opened for reading: http(s) URLs go through httpds, everything else is a
// local path.
package datasource

import (
	"context"
	"io"
	"strings"

	"catalogetl/internal/datasource/file"
	"catalogetl/internal/datasource/httpds"
)

type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// New returns the Source for location.
func New(location string, httpCfg httpds.Config) Source {
	l := strings.ToLower(location)
	if strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://") {
		return httpds.New(location, httpCfg)
	}
	return file.NewLocal(location)
}

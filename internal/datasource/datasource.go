// Package datasource defines where the report's raw bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens the input for one report run. The returned reader yields
// UTF-8 text regardless of the on-disk encoding.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Package rowstore implements the tabular stores registration rows live in.
// Every backend offers the same two calls: read all rows, append one row.
package rowstore

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotConfigured = errors.New("row-store is not configured")

// Unconfigured fails every call. It stands in for a store whose configuration
// is missing, so the service keeps answering with a configuration error.
type Unconfigured struct {
	Reason error
}

func (u Unconfigured) ReadAll(ctx context.Context) ([][]string, error) {
	return nil, u.err()
}

func (u Unconfigured) Append(ctx context.Context, row []string) error {
	return u.err()
}

func (u Unconfigured) err() error {
	if u.Reason == nil {
		return ErrNotConfigured
	}
	return fmt.Errorf("%w: %v", ErrNotConfigured, u.Reason)
}

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// ErrUnknownImage is returned by Static for paths it holds no record for
var ErrUnknownImage = errors.New("no metadata for image")

// Provider reads the raw telemetry record of an image
type Provider interface {
	Metadata(ctx context.Context, path string) (Record, error)
}

// Static serves records from memory, keyed by image path
type Static map[string]Record

// Metadata returns a copy of the record stored for path
func (s Static) Metadata(ctx context.Context, path string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, ok := s[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownImage, path)
	}
	return maps.Clone(rec), nil
}

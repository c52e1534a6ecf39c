// Package sampler captures device positions behind a Geolocator seam. A Go
// process has no GPS of its own; the platform integration (or a route
// replay in simulations and tests) plugs in behind the interface.
package sampler

import (
	"context"
	"errors"
	"time"
)

// ErrPositioningUnavailable is reported when no geolocator is present.
var ErrPositioningUnavailable = errors.New("positioning is unavailable on this device")

// Position is one geolocation fix.
type Position struct {
	Latitude  float64
	Longitude float64
	Heading   *float64
	Speed     *float64
	Accuracy  *float64
	Timestamp time.Time
}

// Options mirror the platform positioning knobs.
type Options struct {
	HighAccuracy bool
	// Timeout bounds how long a single fix may take.
	Timeout time.Duration
	// MaximumAge allows a cached fix no older than this.
	MaximumAge time.Duration
	// Continuous requests an ongoing watch rather than one-shot fixes.
	Continuous bool
}

// Watch is an active position subscription. Closing it releases the
// underlying platform resources; no values are delivered after Close.
type Watch interface {
	Positions() <-chan Position
	Errors() <-chan error
	Close()
}

type Geolocator interface {
	Current(ctx context.Context, opts Options) (Position, error)
	Watch(ctx context.Context, opts Options) (Watch, error)
}

package sampler

import (
	"context"
	"sync"
	"time"
)

// RouteGeolocator replays a fixed sequence of waypoints at a cadence. It
// backs simulations and tests; production wiring injects the platform
// geolocator instead.
type RouteGeolocator struct {
	waypoints []Position
	cadence   time.Duration
}

func NewRouteGeolocator(waypoints []Position, cadence time.Duration) *RouteGeolocator {
	return &RouteGeolocator{
		waypoints: waypoints,
		cadence:   cadence,
	}
}

func (g *RouteGeolocator) Current(ctx context.Context, opts Options) (Position, error) {
	if len(g.waypoints) == 0 {
		return Position{}, ErrPositioningUnavailable
	}
	pos := g.waypoints[0]
	pos.Timestamp = time.Now()
	return pos, nil
}

// Watch emits the waypoints in order, one per cadence tick, then holds on
// the final waypoint. Close stops emission.
func (g *RouteGeolocator) Watch(ctx context.Context, opts Options) (Watch, error) {
	if len(g.waypoints) == 0 {
		return nil, ErrPositioningUnavailable
	}

	w := &routeWatch{
		positions: make(chan Position, 1),
		errors:    make(chan error, 1),
		stop:      make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(g.cadence)
		defer ticker.Stop()
		defer close(w.positions)

		i := 0
		for {
			pos := g.waypoints[i]
			pos.Timestamp = time.Now()

			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case w.positions <- pos:
			}

			if i < len(g.waypoints)-1 {
				i++
			}

			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
			}
		}
	}()

	return w, nil
}

type routeWatch struct {
	positions chan Position
	errors    chan error
	stop      chan struct{}
	once      sync.Once
}

func (w *routeWatch) Positions() <-chan Position {
	return w.positions
}

func (w *routeWatch) Errors() <-chan error {
	return w.errors
}

func (w *routeWatch) Close() {
	w.once.Do(func() {
		close(w.stop)
	})
}

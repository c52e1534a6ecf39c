package sampler

import (
	"context"
	"errors"
	"testing"
	"time"

	"purohit/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

type fakeWatch struct {
	positions chan Position
	errors    chan error
	closed    chan struct{}
}

func newFakeWatch() *fakeWatch {
	return &fakeWatch{
		positions: make(chan Position),
		errors:    make(chan error),
		closed:    make(chan struct{}),
	}
}

func (w *fakeWatch) Positions() <-chan Position { return w.positions }
func (w *fakeWatch) Errors() <-chan error       { return w.errors }
func (w *fakeWatch) Close()                     { close(w.closed) }

type fakeGeolocator struct {
	watch    *fakeWatch
	watchErr error
}

func (g *fakeGeolocator) Current(ctx context.Context, opts Options) (Position, error) {
	return Position{}, errors.New("not implemented")
}

func (g *fakeGeolocator) Watch(ctx context.Context, opts Options) (Watch, error) {
	if g.watchErr != nil {
		return nil, g.watchErr
	}
	return g.watch, nil
}

func waitForState(t *testing.T, s *Sampler, cond func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := s.State()
		if cond(state) {
			return state
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("state condition not reached, last state: %+v", s.State())
	return State{}
}

func TestBegin_NilGeolocatorFailsFast(t *testing.T) {
	s := New(nil, Options{}, testLogger())
	s.Begin()

	state := s.State()
	if !errors.Is(state.Err, ErrPositioningUnavailable) {
		t.Errorf("expected ErrPositioningUnavailable, got %v", state.Err)
	}
	if state.Loading {
		t.Error("loading must be false when positioning is unavailable")
	}
	if state.Position != nil {
		t.Errorf("expected no position, got %+v", state.Position)
	}

	// Stop must not hang even though nothing was started.
	s.Stop()
}

func TestBegin_LoadingUntilFirstFix(t *testing.T) {
	watch := newFakeWatch()
	s := New(&fakeGeolocator{watch: watch}, Options{HighAccuracy: true}, testLogger())
	s.Begin()
	defer s.Stop()

	if state := s.State(); !state.Loading {
		t.Error("expected loading=true before the first fix")
	}

	watch.positions <- Position{Latitude: 11.0, Longitude: 76.9}

	state := waitForState(t, s, func(st State) bool { return st.Position != nil })
	if state.Loading {
		t.Error("loading must clear after the first fix")
	}
	if state.Position.Latitude != 11.0 || state.Position.Longitude != 76.9 {
		t.Errorf("unexpected position %+v", state.Position)
	}
}

func TestFixFailure_RetainsPreviousCoordinates(t *testing.T) {
	watch := newFakeWatch()
	s := New(&fakeGeolocator{watch: watch}, Options{Timeout: 15 * time.Second}, testLogger())
	s.Begin()
	defer s.Stop()

	watch.positions <- Position{Latitude: 11.0, Longitude: 76.9}
	waitForState(t, s, func(st State) bool { return st.Position != nil })

	watch.errors <- errors.New("position fix timed out")

	state := waitForState(t, s, func(st State) bool { return st.Err != nil })
	if state.Position == nil || state.Position.Latitude != 11.0 {
		t.Errorf("previous coordinates must survive a failed fix, got %+v", state.Position)
	}
	if state.Loading {
		t.Error("loading must stay false after a failed fix")
	}
}

func TestStop_ReleasesWatchAndFreezesState(t *testing.T) {
	watch := newFakeWatch()
	s := New(&fakeGeolocator{watch: watch}, Options{}, testLogger())
	s.Begin()

	watch.positions <- Position{Latitude: 1, Longitude: 2}
	waitForState(t, s, func(st State) bool { return st.Position != nil })

	s.Stop()

	select {
	case <-watch.closed:
	default:
		t.Error("Stop must close the underlying watch")
	}

	before := s.State()
	select {
	case watch.positions <- Position{Latitude: 99, Longitude: 99}:
		t.Error("no consumer may accept positions after Stop")
	case <-time.After(20 * time.Millisecond):
	}
	if after := s.State(); after.Position.Latitude != before.Position.Latitude {
		t.Errorf("state changed after Stop: %+v -> %+v", before, after)
	}

	// Idempotent.
	s.Stop()
}

func TestBegin_WatchOpenFailure(t *testing.T) {
	openErr := errors.New("platform refused the watch")
	s := New(&fakeGeolocator{watchErr: openErr}, Options{}, testLogger())
	s.Begin()

	state := s.State()
	if !errors.Is(state.Err, openErr) {
		t.Errorf("expected watch open error, got %v", state.Err)
	}
	if state.Loading {
		t.Error("loading must be false after a failed open")
	}
	s.Stop()
}

func TestRouteGeolocator_ReplaysWaypointsInOrder(t *testing.T) {
	waypoints := []Position{
		{Latitude: 1, Longitude: 1},
		{Latitude: 2, Longitude: 2},
		{Latitude: 3, Longitude: 3},
	}
	geo := NewRouteGeolocator(waypoints, time.Millisecond)

	watch, err := geo.Watch(context.Background(), Options{Continuous: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer watch.Close()

	for i, want := range waypoints {
		select {
		case pos := <-watch.Positions():
			if pos.Latitude != want.Latitude {
				t.Errorf("waypoint %d: expected latitude %v, got %v", i, want.Latitude, pos.Latitude)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for waypoint %d", i)
		}
	}

	// Past the end, the route holds the final waypoint.
	select {
	case pos := <-watch.Positions():
		if pos.Latitude != 3 {
			t.Errorf("expected the route to hold the last waypoint, got %+v", pos)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for held waypoint")
	}
}

func TestRouteGeolocator_EmptyRouteUnavailable(t *testing.T) {
	geo := NewRouteGeolocator(nil, time.Millisecond)
	if _, err := geo.Watch(context.Background(), Options{}); !errors.Is(err, ErrPositioningUnavailable) {
		t.Errorf("expected ErrPositioningUnavailable, got %v", err)
	}
}

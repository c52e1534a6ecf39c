package sampler

import (
	"context"
	"sync"

	"purohit/pkg/logger"
)

// State is the sampler's current view. On a failed fix the previous
// coordinates are retained and Err records the failure, so a transient GPS
// dropout does not blank the position.
type State struct {
	Position *Position
	Err      error
	Loading  bool
}

// Sampler consumes a geolocation watch and keeps the latest fix. Reads are
// synchronous through State(); there is no buffering, the newest fix wins.
type Sampler struct {
	geo  Geolocator
	opts Options
	log  *logger.Logger

	mu    sync.Mutex
	state State

	cancel   context.CancelFunc
	done     chan struct{}
	beginOne sync.Once
	stopOnce sync.Once
}

func New(geo Geolocator, opts Options, log *logger.Logger) *Sampler {
	return &Sampler{
		geo:  geo,
		opts: opts,
		log:  log,
		done: make(chan struct{}),
	}
}

// Begin starts consuming positions. With no geolocator it fails fast: the
// state carries ErrPositioningUnavailable, Loading stays false and no
// goroutine is started.
func (s *Sampler) Begin() {
	s.beginOne.Do(s.begin)
}

func (s *Sampler) begin() {
	if s.geo == nil {
		s.setState(State{Err: ErrPositioningUnavailable})
		close(s.done)
		return
	}

	s.setState(State{Loading: true})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	watch, err := s.geo.Watch(ctx, s.opts)
	if err != nil {
		s.log.Error("Failed to open position watch", "error", err)
		s.setState(State{Err: err})
		cancel()
		close(s.done)
		return
	}

	go s.consume(ctx, watch)
}

func (s *Sampler) consume(ctx context.Context, watch Watch) {
	defer close(s.done)
	defer watch.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case pos, ok := <-watch.Positions():
			if !ok {
				return
			}
			s.mu.Lock()
			p := pos
			s.state = State{Position: &p}
			s.mu.Unlock()
		case err, ok := <-watch.Errors():
			if !ok {
				return
			}
			s.log.Warn("Position fix failed", "error", err)
			s.mu.Lock()
			// Previous coordinates survive the failure.
			s.state = State{Position: s.state.Position, Err: err}
			s.mu.Unlock()
		}
	}
}

// State returns the current sampler state.
func (s *Sampler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stop releases the watch deterministically. It blocks until the consuming
// goroutine has exited; no state changes happen after Stop returns.
func (s *Sampler) Stop() {
	s.stopOnce.Do(func() {
		s.beginOne.Do(func() {
			// Never begun; nothing to release.
			close(s.done)
		})
		if s.cancel != nil {
			s.cancel()
		}
		<-s.done
	})
}

func (s *Sampler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"purohit/pkg/logger"
	"purohit/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

// ────────────────────────────────────────────────
// Fake streams and factory
// ────────────────────────────────────────────────

// fakeStream serves pre-loaded events. With ignoreCtx it keeps returning
// events after cancellation, modelling a transport that delivers late.
type fakeStream struct {
	mu        sync.Mutex
	events    []interface{}
	current   interface{}
	err       error
	ignoreCtx bool
	closed    bool
}

func (f *fakeStream) Next(ctx context.Context) bool {
	for {
		f.mu.Lock()
		if len(f.events) > 0 {
			f.current = f.events[0]
			f.events = f.events[1:]
			f.mu.Unlock()
			return true
		}
		f.mu.Unlock()

		if f.ignoreCtx {
			// Endless late delivery: recycle the last event.
			if f.current != nil {
				return true
			}
			return false
		}

		select {
		case <-ctx.Done():
			return false
		case <-time.After(5 * time.Millisecond):
			f.mu.Lock()
			drained := len(f.events) == 0
			f.mu.Unlock()
			if drained {
				return false
			}
		}
	}
}

func (f *fakeStream) Decode(val interface{}) error {
	switch v := val.(type) {
	case *bookingChangeEvent:
		*v = f.current.(bookingChangeEvent)
	case *sampleChangeEvent:
		*v = f.current.(sampleChangeEvent)
	default:
		return errors.New("unexpected decode target")
	}
	return nil
}

func (f *fakeStream) Err() error {
	return f.err
}

func (f *fakeStream) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

type fakeFactory struct {
	mu             sync.Mutex
	bookingStreams []*fakeStream
	sampleStreams  []*fakeStream
	bookingOpens   int
	sampleOpens    int
}

func (f *fakeFactory) BookingUpdates(ctx context.Context, bookingID string) (ChangeStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bookingOpens >= len(f.bookingStreams) {
		return nil, errors.New("no more booking streams")
	}
	stream := f.bookingStreams[f.bookingOpens]
	f.bookingOpens++
	return stream, nil
}

func (f *fakeFactory) SampleInserts(ctx context.Context, bookingID string) (ChangeStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sampleOpens >= len(f.sampleStreams) {
		return nil, errors.New("no more sample streams")
	}
	stream := f.sampleStreams[f.sampleOpens]
	f.sampleOpens++
	return stream, nil
}

type patchRecorder struct {
	mu       sync.Mutex
	journeys []model.JourneyPatch
	samples  []model.LocationPatch
}

func (r *patchRecorder) onJourney(patch model.JourneyPatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.journeys = append(r.journeys, patch)
}

func (r *patchRecorder) onLocation(patch model.LocationPatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, patch)
}

func (r *patchRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.journeys), len(r.samples)
}

func sampleEvent(lat, lng float64) sampleChangeEvent {
	return sampleChangeEvent{
		FullDocument: model.LocationSample{
			BookingID: "b1",
			Latitude:  lat,
			Longitude: lng,
		},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestSubscribe_DispatchesBothFeeds(t *testing.T) {
	started := true
	bookingStream := &fakeStream{events: []interface{}{
		bookingChangeEvent{FullDocument: model.Booking{ID: "b1", Status: model.StatusConfirmed, JourneyStarted: started}},
	}}
	sampleStream := &fakeStream{events: []interface{}{sampleEvent(10, 20)}}
	factory := &fakeFactory{
		bookingStreams: []*fakeStream{bookingStream},
		sampleStreams:  []*fakeStream{sampleStream},
	}

	sub := NewSubscriber(factory, ResubscribePolicy{}, testLogger())
	recorder := &patchRecorder{}

	subscription, err := sub.Subscribe(context.Background(), "b1", recorder.onJourney, recorder.onLocation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer subscription.Unsubscribe()

	waitFor(t, func() bool {
		j, l := recorder.counts()
		return j == 1 && l == 1
	})

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if recorder.journeys[0].JourneyStarted == nil || !*recorder.journeys[0].JourneyStarted {
		t.Errorf("expected journey_started patch, got %+v", recorder.journeys[0])
	}
	if recorder.samples[0].Sample.Latitude != 10 {
		t.Errorf("expected sample latitude 10, got %+v", recorder.samples[0].Sample)
	}
}

func TestUnsubscribe_DiscardsLateDeliveries(t *testing.T) {
	// The sample stream ignores cancellation and keeps offering events, the
	// way a transport can deliver after teardown. Nothing may be dispatched
	// once Unsubscribe returns.
	sampleStream := &fakeStream{
		events:    []interface{}{sampleEvent(1, 1)},
		ignoreCtx: true,
	}
	bookingStream := &fakeStream{}
	factory := &fakeFactory{
		bookingStreams: []*fakeStream{bookingStream},
		sampleStreams:  []*fakeStream{sampleStream},
	}

	sub := NewSubscriber(factory, ResubscribePolicy{}, testLogger())
	recorder := &patchRecorder{}

	subscription, err := sub.Subscribe(context.Background(), "b1", recorder.onJourney, recorder.onLocation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	waitFor(t, func() bool {
		_, l := recorder.counts()
		return l >= 1
	})

	subscription.Unsubscribe()

	_, before := recorder.counts()
	time.Sleep(20 * time.Millisecond)
	_, after := recorder.counts()
	if after != before {
		t.Errorf("patches dispatched after teardown: %d -> %d", before, after)
	}
}

func TestSubscribe_StreamErrorWithoutPolicyStops(t *testing.T) {
	bookingStream := &fakeStream{err: errors.New("change stream closed")}
	sampleStream := &fakeStream{}
	factory := &fakeFactory{
		bookingStreams: []*fakeStream{bookingStream},
		sampleStreams:  []*fakeStream{sampleStream},
	}

	sub := NewSubscriber(factory, ResubscribePolicy{}, testLogger())

	var mu sync.Mutex
	var seen []error
	sub.OnError(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, err)
	})

	recorder := &patchRecorder{}
	subscription, err := sub.Subscribe(context.Background(), "b1", recorder.onJourney, recorder.onLocation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer subscription.Unsubscribe()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 1
	})

	if factory.bookingOpens != 1 {
		t.Errorf("resubscription is off, expected 1 open, got %d", factory.bookingOpens)
	}
}

func TestSubscribe_ResubscribePolicyReopensStream(t *testing.T) {
	first := &fakeStream{
		events: []interface{}{sampleEvent(1, 1)},
		err:    errors.New("connection reset"),
	}
	second := &fakeStream{events: []interface{}{sampleEvent(2, 2)}}
	factory := &fakeFactory{
		bookingStreams: []*fakeStream{{}},
		sampleStreams:  []*fakeStream{first, second},
	}

	policy := ResubscribePolicy{
		Enabled:        true,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		MaxAttempts:    3,
	}
	sub := NewSubscriber(factory, policy, testLogger())
	recorder := &patchRecorder{}

	subscription, err := sub.Subscribe(context.Background(), "b1", recorder.onJourney, recorder.onLocation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer subscription.Unsubscribe()

	waitFor(t, func() bool {
		_, l := recorder.counts()
		return l >= 2
	})

	if factory.sampleOpens != 2 {
		t.Errorf("expected the sample stream to be reopened once, got %d opens", factory.sampleOpens)
	}
}

func TestBookingChangeEvent_ToPatchHonoursUpdatedFields(t *testing.T) {
	eta := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	event := bookingChangeEvent{
		FullDocument: model.Booking{
			ID:               "b1",
			Status:           model.StatusConfirmed,
			JourneyStarted:   true,
			EstimatedArrival: &eta,
			CurrentLocation:  &model.LatLng{Latitude: 5, Longitude: 6},
		},
	}
	event.UpdateDescription.UpdatedFields = map[string]interface{}{
		"journey_started":   true,
		"estimated_arrival": eta,
	}

	patch := event.toPatch("b1")

	if patch.Status != nil {
		t.Error("status was not updated, patch must not carry it")
	}
	if patch.CurrentLocation != nil {
		t.Error("current_location was not updated, patch must not carry it")
	}
	if patch.JourneyStarted == nil || !*patch.JourneyStarted {
		t.Error("expected journey_started=true in patch")
	}
	if patch.EstimatedArrival == nil || !patch.EstimatedArrival.Equal(eta) {
		t.Errorf("expected ETA %v, got %v", eta, patch.EstimatedArrival)
	}
}

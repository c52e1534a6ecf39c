package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"purohit/pkg/logger"
	"purohit/pkg/model"
)

// ChangeStream is the slice of mongo.ChangeStream the subscriber needs.
// Tests inject fakes through this seam.
type ChangeStream interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	Err() error
	Close(ctx context.Context) error
}

// StreamFactory opens the two per-booking change streams.
type StreamFactory interface {
	BookingUpdates(ctx context.Context, bookingID string) (ChangeStream, error)
	SampleInserts(ctx context.Context, bookingID string) (ChangeStream, error)
}

type JourneyHandler func(patch model.JourneyPatch)

type LocationHandler func(patch model.LocationPatch)

// ResubscribePolicy controls whether a dropped stream is reopened. Disabled
// by default: the driver already resumes across transient network errors,
// and a hard drop surfaces through OnError instead.
type ResubscribePolicy struct {
	Enabled        bool
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxAttempts    int
}

type Subscriber struct {
	factory StreamFactory
	policy  ResubscribePolicy
	log     *logger.Logger
	onError func(err error)
}

func NewSubscriber(factory StreamFactory, policy ResubscribePolicy, log *logger.Logger) *Subscriber {
	return &Subscriber{
		factory: factory,
		policy:  policy,
		log:     log,
		onError: func(err error) {},
	}
}

// OnError registers a hook for transport failures. Must be called before
// Subscribe.
func (s *Subscriber) OnError(fn func(err error)) {
	if fn != nil {
		s.onError = fn
	}
}

// Subscription is one live tail over a booking's two feeds. The two feeds
// are independent: there is no ordering guarantee between a journey patch
// and a location patch, only within each feed.
type Subscription struct {
	cancel   context.CancelFunc
	tornDown atomic.Bool
	wg       sync.WaitGroup
}

// Unsubscribe tears the subscription down synchronously. The teardown flag
// flips before cancellation, so a patch the transport delivers late is
// discarded rather than dispatched.
func (sub *Subscription) Unsubscribe() {
	sub.tornDown.Store(true)
	sub.cancel()
	sub.wg.Wait()
}

// Subscribe opens both change streams and dispatches patches to the
// handlers until Unsubscribe or context cancellation. Stream opening is
// synchronous; a failure to open either feed fails the whole call.
func (s *Subscriber) Subscribe(ctx context.Context, bookingID string, onJourney JourneyHandler, onLocation LocationHandler) (*Subscription, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	bookingStream, err := s.factory.BookingUpdates(streamCtx, bookingID)
	if err != nil {
		cancel()
		return nil, err
	}

	sampleStream, err := s.factory.SampleInserts(streamCtx, bookingID)
	if err != nil {
		_ = bookingStream.Close(context.Background())
		cancel()
		return nil, err
	}

	sub := &Subscription{cancel: cancel}

	sub.wg.Add(2)
	go s.consume(streamCtx, sub, bookingID, bookingStream, func(stream ChangeStream) bool {
		var event bookingChangeEvent
		if err := stream.Decode(&event); err != nil {
			s.log.Warn("Failed to decode booking change event", "booking_id", bookingID, "error", err)
			return true
		}
		onJourney(event.toPatch(bookingID))
		return true
	}, s.reopenBookingUpdates)

	go s.consume(streamCtx, sub, bookingID, sampleStream, func(stream ChangeStream) bool {
		var event sampleChangeEvent
		if err := stream.Decode(&event); err != nil {
			s.log.Warn("Failed to decode sample change event", "booking_id", bookingID, "error", err)
			return true
		}
		onLocation(model.LocationPatch{Sample: event.FullDocument})
		return true
	}, s.reopenSampleInserts)

	return sub, nil
}

type reopenFunc func(ctx context.Context, bookingID string) (ChangeStream, error)

func (s *Subscriber) reopenBookingUpdates(ctx context.Context, bookingID string) (ChangeStream, error) {
	return s.factory.BookingUpdates(ctx, bookingID)
}

func (s *Subscriber) reopenSampleInserts(ctx context.Context, bookingID string) (ChangeStream, error) {
	return s.factory.SampleInserts(ctx, bookingID)
}

// consume drains one stream. Every event checks the teardown flag first:
// once Unsubscribe has run, late deliveries are dropped on the floor.
func (s *Subscriber) consume(ctx context.Context, sub *Subscription, bookingID string, stream ChangeStream, dispatch func(stream ChangeStream) bool, reopen reopenFunc) {
	defer sub.wg.Done()
	defer func() {
		_ = stream.Close(context.Background())
	}()

	attempts := 0
	for {
		for stream.Next(ctx) {
			if sub.tornDown.Load() {
				return
			}
			dispatch(stream)
		}

		if ctx.Err() != nil || sub.tornDown.Load() {
			return
		}

		err := stream.Err()
		s.onError(err)

		if !s.policy.Enabled {
			s.log.Warn("Change stream closed", "booking_id", bookingID, "error", err)
			return
		}

		attempts++
		if s.policy.MaxAttempts > 0 && attempts > s.policy.MaxAttempts {
			s.log.Error("Change stream resubscription attempts exhausted",
				"booking_id", bookingID,
				"attempts", attempts-1,
				"error", err,
			)
			return
		}

		backoff := s.policy.InitialBackoff << (attempts - 1)
		if backoff > s.policy.MaxBackoff || backoff <= 0 {
			backoff = s.policy.MaxBackoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		_ = stream.Close(context.Background())
		next, reopenErr := reopen(ctx, bookingID)
		if reopenErr != nil {
			s.log.Error("Failed to reopen change stream",
				"booking_id", bookingID,
				"attempt", attempts,
				"error", reopenErr,
			)
			s.onError(reopenErr)
			continue
		}
		stream = next
	}
}

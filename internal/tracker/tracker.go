// Package tracker runs the priest-device journey loop: gate the start on
// the server-side journey state, then write the sampled position on a
// fixed interval until stopped.
package tracker

import (
	"context"
	"time"

	"purohit/internal/sampler"
	"purohit/pkg/logger"
	"purohit/pkg/model"

	"github.com/google/uuid"
)

// JourneyAPI is the slice of the tracking API the device needs. The HTTP
// client implements it; tests use fakes.
type JourneyAPI interface {
	StartJourney(ctx context.Context, bookingID, priestID string, eta *time.Time, idempotencyKey string) error
	UpdateLocation(ctx context.Context, priestID, bookingID string, sample model.LocationSample) error
	JourneyState(ctx context.Context, bookingID, priestID string) (*model.JourneyState, error)
}

// PositionSource is the sampler surface the loop reads from.
type PositionSource interface {
	Begin()
	State() sampler.State
	Stop()
}

type Tracker struct {
	api      JourneyAPI
	source   PositionSource
	log      *logger.Logger
	interval time.Duration

	bookingID string
	priestID  string
}

func New(api JourneyAPI, source PositionSource, bookingID, priestID string, interval time.Duration, log *logger.Logger) *Tracker {
	return &Tracker{
		api:       api,
		source:    source,
		log:       log,
		interval:  interval,
		bookingID: bookingID,
		priestID:  priestID,
	}
}

// Run drives one journey until the context is cancelled. The start is
// gated on the server state: only a confirmed booking with journey_started
// still false triggers StartJourney, so a device restart mid-journey does
// not re-activate anything. Location writes happen immediately on
// activation and then once per tick; a failed write is logged and the loop
// carries on to the next tick.
func (t *Tracker) Run(ctx context.Context, eta *time.Time) error {
	state, err := t.api.JourneyState(ctx, t.bookingID, t.priestID)
	if err != nil {
		return err
	}

	if state.Status == model.StatusConfirmed && !state.JourneyStarted {
		if err := t.api.StartJourney(ctx, t.bookingID, t.priestID, eta, uuid.New().String()); err != nil {
			return err
		}
		t.log.Info("Journey started", "booking_id", t.bookingID)
	} else {
		t.log.Info("Journey start skipped",
			"booking_id", t.bookingID,
			"status", state.Status,
			"journey_started", state.JourneyStarted,
		)
		if state.Status != model.StatusConfirmed && !state.JourneyStarted {
			return nil
		}
	}

	t.source.Begin()
	defer t.source.Stop()

	// First write immediately, then on the tick.
	t.writeLocation(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.writeLocation(ctx)
		}
	}
}

// writeLocation reads the sampler synchronously and pushes the newest fix.
// No position yet, or a write failure, skips this tick; the journey is not
// torn down over a missed sample.
func (t *Tracker) writeLocation(ctx context.Context) {
	state := t.source.State()
	if state.Position == nil {
		if state.Err != nil {
			t.log.Warn("No position available", "booking_id", t.bookingID, "error", state.Err)
		}
		return
	}

	pos := state.Position
	sample := model.LocationSample{
		PriestID:  t.priestID,
		BookingID: t.bookingID,
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Heading:   pos.Heading,
		Speed:     pos.Speed,
		Accuracy:  pos.Accuracy,
	}

	if err := t.api.UpdateLocation(ctx, t.priestID, t.bookingID, sample); err != nil {
		t.log.Warn("Location update failed", "booking_id", t.bookingID, "error", err)
	}
}

// Package reducer merges tracking patches into the customer-side view.
// Apply is pure: it never mutates its inputs, so callers can replay or
// interleave patches from both feeds freely.
package reducer

import (
	"purohit/pkg/model"
)

// State is the customer's current picture of a journey: the merged snapshot
// plus the newest raw sample seen on the location feed.
type State struct {
	Snapshot     *model.TrackingSnapshot
	LatestSample *model.LocationSample
}

// Apply folds one patch into the state and returns the new state.
//
// Journey patches merge field-wise into an existing snapshot and are
// dropped when no base snapshot has arrived yet: there is nothing to merge
// into, and the snapshot fetch that follows will carry the same fields.
// Location patches are always retained; the sample feed is the source of
// truth for coordinates regardless of snapshot arrival order.
func Apply(state State, patch any) State {
	switch p := patch.(type) {
	case model.JourneyPatch:
		return applyJourney(state, p)
	case model.LocationPatch:
		return applyLocation(state, p)
	default:
		return state
	}
}

// Seed installs the fetched snapshot as the merge base. A sample that
// arrived before the snapshot wins over the snapshot's own coordinates.
func Seed(state State, snapshot model.TrackingSnapshot) State {
	next := snapshot
	if state.LatestSample != nil {
		next.CurrentLocation = &model.LatLng{
			Latitude:  state.LatestSample.Latitude,
			Longitude: state.LatestSample.Longitude,
		}
	}
	state.Snapshot = &next
	return state
}

func applyJourney(state State, patch model.JourneyPatch) State {
	if state.Snapshot == nil {
		return state
	}

	next := *state.Snapshot
	if patch.Status != nil {
		next.Status = *patch.Status
	}
	if patch.JourneyStarted != nil {
		next.JourneyStarted = *patch.JourneyStarted
	}
	if patch.EstimatedArrival != nil {
		next.EstimatedArrival = patch.EstimatedArrival
	}
	if patch.CurrentLocation != nil && state.LatestSample == nil {
		// Denormalized coordinates on the booking only matter until the
		// first sample arrives; after that the location feed owns them.
		// This keeps the merge independent of cross-feed interleaving.
		loc := *patch.CurrentLocation
		next.CurrentLocation = &loc
	}

	state.Snapshot = &next
	return state
}

func applyLocation(state State, patch model.LocationPatch) State {
	sample := patch.Sample
	state.LatestSample = &sample

	if state.Snapshot != nil {
		next := *state.Snapshot
		next.CurrentLocation = &model.LatLng{
			Latitude:  sample.Latitude,
			Longitude: sample.Longitude,
		}
		state.Snapshot = &next
	}

	return state
}

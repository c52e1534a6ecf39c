package reducer

import (
	"reflect"
	"testing"
	"time"

	"purohit/pkg/model"
)

func baseSnapshot() model.TrackingSnapshot {
	return model.TrackingSnapshot{
		BookingID: "b1",
		PriestID:  "p1",
		Status:    model.StatusConfirmed,
	}
}

func journeyStartedPatch(eta time.Time) model.JourneyPatch {
	started := true
	return model.JourneyPatch{
		BookingID:        "b1",
		JourneyStarted:   &started,
		EstimatedArrival: &eta,
	}
}

func locationPatch(lat, lng float64) model.LocationPatch {
	return model.LocationPatch{
		Sample: model.LocationSample{
			BookingID: "b1",
			Latitude:  lat,
			Longitude: lng,
		},
	}
}

func TestApply_JourneyPatchWithoutBaseIsDropped(t *testing.T) {
	state := Apply(State{}, journeyStartedPatch(time.Now()))
	if state.Snapshot != nil {
		t.Errorf("journey patch without a base snapshot must be dropped, got %+v", state.Snapshot)
	}
}

func TestApply_LocationPatchWithoutBaseIsRetained(t *testing.T) {
	state := Apply(State{}, locationPatch(9.9, 8.8))
	if state.LatestSample == nil || state.LatestSample.Latitude != 9.9 {
		t.Fatalf("location patch must be retained without a base, got %+v", state.LatestSample)
	}

	state = Seed(state, baseSnapshot())
	if state.Snapshot.CurrentLocation == nil || state.Snapshot.CurrentLocation.Latitude != 9.9 {
		t.Errorf("pre-snapshot sample must win over the snapshot coordinates, got %+v", state.Snapshot.CurrentLocation)
	}
}

func TestApply_JourneyPatchMergesFieldWise(t *testing.T) {
	eta := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	state := Seed(State{}, baseSnapshot())

	state = Apply(state, journeyStartedPatch(eta))

	if !state.Snapshot.JourneyStarted {
		t.Error("expected journey_started=true after patch")
	}
	if state.Snapshot.EstimatedArrival == nil || !state.Snapshot.EstimatedArrival.Equal(eta) {
		t.Errorf("expected ETA %v, got %v", eta, state.Snapshot.EstimatedArrival)
	}
	if state.Snapshot.Status != model.StatusConfirmed {
		t.Errorf("untouched fields must survive the merge, got status %s", state.Snapshot.Status)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	state := Seed(State{}, baseSnapshot())
	before := *state.Snapshot

	_ = Apply(state, journeyStartedPatch(time.Now()))
	_ = Apply(state, locationPatch(1, 2))

	if !reflect.DeepEqual(before, *state.Snapshot) {
		t.Errorf("Apply mutated its input: %+v -> %+v", before, *state.Snapshot)
	}
}

// interleavings enumerates every merge of the two feeds that preserves
// per-feed order.
func interleavings(journey []model.JourneyPatch, location []model.LocationPatch) [][]any {
	if len(journey) == 0 && len(location) == 0 {
		return [][]any{{}}
	}

	var result [][]any
	if len(journey) > 0 {
		for _, rest := range interleavings(journey[1:], location) {
			seq := append([]any{journey[0]}, rest...)
			result = append(result, seq)
		}
	}
	if len(location) > 0 {
		for _, rest := range interleavings(journey, location[1:]) {
			seq := append([]any{location[0]}, rest...)
			result = append(result, seq)
		}
	}
	return result
}

func TestApply_FinalStateIndependentOfInterleaving(t *testing.T) {
	eta := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	completed := model.StatusCompleted

	journey := []model.JourneyPatch{
		journeyStartedPatch(eta),
		{BookingID: "b1", CurrentLocation: &model.LatLng{Latitude: 50, Longitude: 60}},
		{BookingID: "b1", Status: &completed},
	}
	location := []model.LocationPatch{
		locationPatch(1, 2),
		locationPatch(3, 4),
	}

	var reference *State
	for i, seq := range interleavings(journey, location) {
		state := Seed(State{}, baseSnapshot())
		for _, patch := range seq {
			state = Apply(state, patch)
		}

		if reference == nil {
			ref := state
			reference = &ref
			continue
		}
		if !reflect.DeepEqual(*reference.Snapshot, *state.Snapshot) {
			t.Fatalf("interleaving %d diverged:\nreference: %+v\ngot:       %+v", i, *reference.Snapshot, *state.Snapshot)
		}
		if !reflect.DeepEqual(*reference.LatestSample, *state.LatestSample) {
			t.Fatalf("interleaving %d sample diverged: %+v vs %+v", i, *reference.LatestSample, *state.LatestSample)
		}
	}
}

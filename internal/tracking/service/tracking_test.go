package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	trackingerrors "purohit/internal/tracking/errors"
	"purohit/internal/tracking/repository"
	"purohit/internal/tracking/validator"
	"purohit/pkg/config"
	apperrors "purohit/pkg/errors"
	"purohit/pkg/logger"
	"purohit/pkg/model"

	"github.com/google/uuid"
)

// ────────────────────────────────────────────────
// Mock repositories for testing
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	findByIDFunc           func(ctx context.Context, id string) (*model.Booking, error)
	startJourneyFunc       func(ctx context.Context, id string, eta *time.Time) error
	setCurrentLocationFunc func(ctx context.Context, id string, loc model.LatLng) error
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, trackingerrors.ErrBookingNotFound
}

func (m *mockBookingRepository) StartJourney(ctx context.Context, id string, eta *time.Time) error {
	if m.startJourneyFunc != nil {
		return m.startJourneyFunc(ctx, id, eta)
	}
	return nil
}

func (m *mockBookingRepository) SetCurrentLocation(ctx context.Context, id string, loc model.LatLng) error {
	if m.setCurrentLocationFunc != nil {
		return m.setCurrentLocationFunc(ctx, id, loc)
	}
	return nil
}

// fakeSampleStore is an in-memory append-only sample collection. It mimics
// the Mongo repository's timestamping so ordering semantics can be tested.
type fakeSampleStore struct {
	mu      sync.Mutex
	samples []model.LocationSample
	clock   time.Time
}

func newFakeSampleStore() *fakeSampleStore {
	return &fakeSampleStore{clock: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeSampleStore) Append(ctx context.Context, sample *model.LocationSample) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clock = f.clock.Add(time.Second)
	sample.CreatedAt = f.clock
	sample.UpdatedAt = f.clock
	if sample.ID == "" {
		sample.ID = uuid.New().String()
	}
	f.samples = append(f.samples, *sample)
	return nil
}

func (f *fakeSampleStore) Latest(ctx context.Context, bookingID string) (*model.LocationSample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *model.LocationSample
	for i := range f.samples {
		s := f.samples[i]
		if s.BookingID != bookingID {
			continue
		}
		if latest == nil || s.UpdatedAt.After(latest.UpdatedAt) {
			latest = &s
		}
	}
	return latest, nil
}

type recordingPublisher struct {
	mu        sync.Mutex
	started   []string
	locations []string
}

func (r *recordingPublisher) JourneyStarted(ctx context.Context, booking *model.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, booking.ID)
}

func (r *recordingPublisher) LocationUpdated(ctx context.Context, sample *model.LocationSample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locations = append(r.locations, sample.BookingID)
}

func newTestConfig() *config.Config {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return &config.Config{
		Log:          log,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

const (
	testBookingID  = "65f2a1b2c3d4e5f6a7b8c9d0"
	testPriestID   = "priest-17"
	testCustomerID = "customer-42"
)

func confirmedBooking() *model.Booking {
	return &model.Booking{
		ID:         testBookingID,
		PriestID:   testPriestID,
		CustomerID: testCustomerID,
		Status:     model.StatusConfirmed,
	}
}

func newService(bookings *mockBookingRepository, samples repository.SampleRepository, events EventPublisher) TrackingService {
	cfg := newTestConfig()
	v := validator.NewTrackingValidator(cfg.Log)
	return NewTrackingService(bookings, samples, v, events, cfg)
}

// ────────────────────────────────────────────────
// UpdateLocation / Snapshot round trip
// ────────────────────────────────────────────────

func TestUpdateLocation_SnapshotReturnsExactCoordinates(t *testing.T) {
	booking := confirmedBooking()
	bookings := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}
	samples := newFakeSampleStore()
	svc := newService(bookings, samples, nil)

	sample := &model.LocationSample{Latitude: 12.9716, Longitude: 77.5946}
	if err := svc.UpdateLocation(context.Background(), testPriestID, testBookingID, sample); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot, err := svc.Snapshot(context.Background(), testBookingID, testCustomerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.CurrentLocation == nil {
		t.Fatal("expected current location in snapshot")
	}
	if snapshot.CurrentLocation.Latitude != 12.9716 || snapshot.CurrentLocation.Longitude != 77.5946 {
		t.Errorf("expected exact coordinates back, got %+v", snapshot.CurrentLocation)
	}
}

func TestUpdateLocation_DuplicateCoordinatesAppendDistinctSamples(t *testing.T) {
	booking := confirmedBooking()
	bookings := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}
	samples := newFakeSampleStore()
	svc := newService(bookings, samples, nil)

	for i := 0; i < 2; i++ {
		sample := &model.LocationSample{Latitude: 19.076, Longitude: 72.8777}
		if err := svc.UpdateLocation(context.Background(), testPriestID, testBookingID, sample); err != nil {
			t.Fatalf("write %d: unexpected error: %v", i, err)
		}
	}

	if len(samples.samples) != 2 {
		t.Fatalf("expected 2 stored samples, got %d", len(samples.samples))
	}
	if samples.samples[0].ID == samples.samples[1].ID {
		t.Error("duplicate coordinates must still be distinct documents")
	}

	latest, err := samples.Latest(context.Background(), testBookingID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !latest.UpdatedAt.Equal(samples.samples[1].UpdatedAt) {
		t.Errorf("expected the most recently written sample to win, got updated_at %v", latest.UpdatedAt)
	}
}

func TestUpdateLocation_InvalidLatitudeRejected(t *testing.T) {
	bookings := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			t.Error("validation must happen before the booking lookup")
			return nil, nil
		},
	}
	svc := newService(bookings, newFakeSampleStore(), nil)

	sample := &model.LocationSample{Latitude: 91.0, Longitude: 0}
	err := svc.UpdateLocation(context.Background(), testPriestID, testBookingID, sample)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected %s, got %s", apperrors.CodeValidation, appErr.Code)
	}
}

func TestUpdateLocation_AppendFailureWrapsLocationUpdateError(t *testing.T) {
	booking := confirmedBooking()
	bookings := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}
	samples := &failingSampleStore{err: errors.New("write concern failed")}
	svc := newService(bookings, samples, nil)

	err := svc.UpdateLocation(context.Background(), testPriestID, testBookingID, &model.LocationSample{Latitude: 1, Longitude: 2})
	if err == nil {
		t.Fatal("expected error")
	}
	var locErr *trackingerrors.LocationUpdateError
	if !errors.As(err, &locErr) {
		t.Fatalf("expected LocationUpdateError, got %T", err)
	}
	if locErr.BookingID != testBookingID {
		t.Errorf("expected booking ID %s, got %s", testBookingID, locErr.BookingID)
	}
}

func TestUpdateLocation_DenormalizationFailureIsNonFatal(t *testing.T) {
	booking := confirmedBooking()
	bookings := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
		setCurrentLocationFunc: func(ctx context.Context, id string, loc model.LatLng) error {
			return errors.New("booking write failed")
		},
	}
	svc := newService(bookings, newFakeSampleStore(), nil)

	err := svc.UpdateLocation(context.Background(), testPriestID, testBookingID, &model.LocationSample{Latitude: 1, Longitude: 2})
	if err != nil {
		t.Fatalf("sample append succeeded, denormalization failure must not surface: %v", err)
	}
}

type failingSampleStore struct {
	err error
}

func (f *failingSampleStore) Append(ctx context.Context, sample *model.LocationSample) error {
	return f.err
}

func (f *failingSampleStore) Latest(ctx context.Context, bookingID string) (*model.LocationSample, error) {
	return nil, f.err
}

// ────────────────────────────────────────────────
// StartJourney
// ────────────────────────────────────────────────

func TestStartJourney_SetsFlagAndPublishesEvent(t *testing.T) {
	booking := confirmedBooking()
	var gotETA *time.Time
	bookings := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
		startJourneyFunc: func(ctx context.Context, id string, eta *time.Time) error {
			gotETA = eta
			return nil
		},
	}
	events := &recordingPublisher{}
	svc := newService(bookings, newFakeSampleStore(), events)

	eta := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	if err := svc.StartJourney(context.Background(), testBookingID, testPriestID, &eta); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotETA == nil || !gotETA.Equal(eta) {
		t.Errorf("expected ETA %v to reach the store, got %v", eta, gotETA)
	}
	if len(events.started) != 1 || events.started[0] != testBookingID {
		t.Errorf("expected one journey.started event for %s, got %v", testBookingID, events.started)
	}
}

func TestStartJourney_RedundantCallKeepsJourneyStarted(t *testing.T) {
	booking := confirmedBooking()
	booking.JourneyStarted = true

	starts := 0
	bookings := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
		startJourneyFunc: func(ctx context.Context, id string, eta *time.Time) error {
			starts++
			return nil
		},
	}
	svc := newService(bookings, newFakeSampleStore(), nil)

	if err := svc.StartJourney(context.Background(), testBookingID, testPriestID, nil); err != nil {
		t.Fatalf("redundant start must succeed: %v", err)
	}
	if starts != 1 {
		t.Errorf("expected the write to be issued, got %d", starts)
	}
	if !booking.JourneyStarted {
		t.Error("journey_started must remain true after a redundant start")
	}
}

func TestStartJourney_UnassignedPriestForbidden(t *testing.T) {
	booking := confirmedBooking()
	bookings := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}
	svc := newService(bookings, newFakeSampleStore(), nil)

	err := svc.StartJourney(context.Background(), testBookingID, "someone-else", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var startErr *trackingerrors.JourneyStartError
	if !errors.As(err, &startErr) {
		t.Fatalf("expected JourneyStartError, got %T", err)
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
}

func TestStartJourney_UnknownBookingNotFound(t *testing.T) {
	bookings := &mockBookingRepository{}
	svc := newService(bookings, newFakeSampleStore(), nil)

	err := svc.StartJourney(context.Background(), testBookingID, testPriestID, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected %s, got %s", apperrors.CodeNotFound, appErr.Code)
	}
}

// ────────────────────────────────────────────────
// Snapshot
// ────────────────────────────────────────────────

func TestSnapshot_OtherCustomerForbidden(t *testing.T) {
	booking := confirmedBooking()
	bookings := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}
	svc := newService(bookings, newFakeSampleStore(), nil)

	_, err := svc.Snapshot(context.Background(), testBookingID, "intruder")
	if err == nil {
		t.Fatal("expected error")
	}
	var snapErr *trackingerrors.SnapshotFetchError
	if !errors.As(err, &snapErr) {
		t.Fatalf("expected SnapshotFetchError, got %T", err)
	}
	if appErr := apperrors.AsAppError(err); appErr.Code != apperrors.CodeForbidden {
		t.Errorf("expected %s, got %s", apperrors.CodeForbidden, appErr.Code)
	}
}

func TestSnapshot_UnreadableSamplesDegradesToNoLocation(t *testing.T) {
	booking := confirmedBooking()
	booking.CurrentLocation = &model.LatLng{Latitude: 28.6139, Longitude: 77.209}
	bookings := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}
	cfg := newTestConfig()
	v := validator.NewTrackingValidator(cfg.Log)
	svc := NewTrackingService(bookings, &failingSampleStore{err: trackingerrors.ErrSampleUnreadable}, v, nil, cfg)

	snapshot, err := svc.Snapshot(context.Background(), testBookingID, testCustomerID)
	if err != nil {
		t.Fatalf("unreadable samples must not fail the snapshot: %v", err)
	}
	if snapshot.CurrentLocation != nil {
		t.Error("expected no current location when samples are unreadable")
	}
	if snapshot.BookingID != testBookingID || snapshot.PriestID != testPriestID {
		t.Errorf("journey fields must still be populated, got %+v", snapshot)
	}
}

func TestSnapshot_NoSamplesFallsBackToBookingLocation(t *testing.T) {
	booking := confirmedBooking()
	booking.CurrentLocation = &model.LatLng{Latitude: 13.0827, Longitude: 80.2707}
	bookings := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return booking, nil
		},
	}
	svc := newService(bookings, newFakeSampleStore(), nil)

	snapshot, err := svc.Snapshot(context.Background(), testBookingID, testCustomerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.CurrentLocation == nil || snapshot.CurrentLocation.Latitude != 13.0827 {
		t.Errorf("expected denormalized booking location, got %+v", snapshot.CurrentLocation)
	}
}

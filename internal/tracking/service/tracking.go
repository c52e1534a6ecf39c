package service

import (
	"context"
	"errors"
	"time"

	trackingerrors "purohit/internal/tracking/errors"
	"purohit/internal/tracking/repository"
	"purohit/internal/tracking/validator"
	"purohit/pkg/config"
	apperrors "purohit/pkg/errors"
	"purohit/pkg/model"
)

type TrackingService interface {
	StartJourney(ctx context.Context, bookingID, priestID string, eta *time.Time) error
	UpdateLocation(ctx context.Context, priestID, bookingID string, sample *model.LocationSample) error
	JourneyState(ctx context.Context, bookingID, priestID string) (*model.JourneyState, error)
	Snapshot(ctx context.Context, bookingID, customerID string) (*model.TrackingSnapshot, error)
}

type trackingService struct {
	bookings  repository.BookingRepository
	samples   repository.SampleRepository
	validator *validator.TrackingValidator
	events    EventPublisher
	cfg       *config.Config
}

func NewTrackingService(
	bookings repository.BookingRepository,
	samples repository.SampleRepository,
	validator *validator.TrackingValidator,
	events EventPublisher,
	cfg *config.Config,
) TrackingService {
	if events == nil {
		events = NoopEventPublisher{}
	}
	return &trackingService{
		bookings:  bookings,
		samples:   samples,
		validator: validator,
		events:    events,
		cfg:       cfg,
	}
}

// StartJourney flips journey_started on the booking and records the ETA.
// There is no server-side exactly-once guard: two concurrent calls both
// succeed and both set the flag to true, which is the intended end state.
// The device gates redundant starts by reading JourneyState first.
func (s *trackingService) StartJourney(ctx context.Context, bookingID, priestID string, eta *time.Time) error {
	if bookingID == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if priestID == "" {
		return apperrors.InvalidInput("Priest ID cannot be empty")
	}

	booking, err := s.findAssignedBooking(ctx, bookingID, priestID)
	if err != nil {
		return &trackingerrors.JourneyStartError{BookingID: bookingID, Err: err}
	}

	if err := s.bookings.StartJourney(ctx, bookingID, eta); err != nil {
		s.cfg.Log.Error("Failed to start journey", "booking_id", bookingID, "error", err)
		return &trackingerrors.JourneyStartError{
			BookingID: bookingID,
			Err:       apperrors.Internal("Failed to start journey", err),
		}
	}

	booking.JourneyStarted = true
	booking.EstimatedArrival = eta
	s.events.JourneyStarted(ctx, booking)

	s.cfg.Log.Info("Journey started",
		"booking_id", bookingID,
		"priest_id", priestID,
		"estimated_arrival", eta,
	)
	return nil
}

// UpdateLocation appends a sample and denormalizes the coordinates onto the
// booking. The denormalization is best-effort; the sample append is the
// write that matters. Failures come back as LocationUpdateError, which
// callers treat as non-fatal.
func (s *trackingService) UpdateLocation(ctx context.Context, priestID, bookingID string, sample *model.LocationSample) error {
	if bookingID == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if priestID == "" {
		return apperrors.InvalidInput("Priest ID cannot be empty")
	}
	if sample == nil {
		return apperrors.InvalidInput("Location sample cannot be empty")
	}

	sample.PriestID = priestID
	sample.BookingID = bookingID

	if err := s.validator.ValidateSample(sample); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return apperrors.Validation("Invalid location sample", map[string]any{
				"errors": validationErrs,
			})
		}
		return apperrors.Internal("Failed to validate location sample", err)
	}

	if _, err := s.findAssignedBooking(ctx, bookingID, priestID); err != nil {
		return &trackingerrors.LocationUpdateError{BookingID: bookingID, Err: err}
	}

	if err := s.samples.Append(ctx, sample); err != nil {
		s.cfg.Log.Error("Failed to append location sample", "booking_id", bookingID, "error", err)
		return &trackingerrors.LocationUpdateError{
			BookingID: bookingID,
			Err:       apperrors.Internal("Failed to record location", err),
		}
	}

	loc := model.LatLng{Latitude: sample.Latitude, Longitude: sample.Longitude}
	if err := s.bookings.SetCurrentLocation(ctx, bookingID, loc); err != nil {
		s.cfg.Log.Warn("Failed to denormalize current location onto booking",
			"booking_id", bookingID,
			"error", err,
		)
	}

	s.events.LocationUpdated(ctx, sample)

	return nil
}

// JourneyState is the priest-side read used to gate journey activation.
func (s *trackingService) JourneyState(ctx context.Context, bookingID, priestID string) (*model.JourneyState, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if priestID == "" {
		return nil, apperrors.InvalidInput("Priest ID cannot be empty")
	}

	booking, err := s.findAssignedBooking(ctx, bookingID, priestID)
	if err != nil {
		return nil, err
	}

	return &model.JourneyState{
		BookingID:        booking.ID,
		Status:           booking.Status,
		JourneyStarted:   booking.JourneyStarted,
		EstimatedArrival: booking.EstimatedArrival,
	}, nil
}

// Snapshot assembles the customer-side view: booking journey fields plus the
// newest location sample. An unreadable sample collection degrades to a
// snapshot without coordinates rather than failing the request.
func (s *trackingService) Snapshot(ctx context.Context, bookingID, customerID string) (*model.TrackingSnapshot, error) {
	if bookingID == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if customerID == "" {
		return nil, apperrors.InvalidInput("Customer ID cannot be empty")
	}

	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, &trackingerrors.SnapshotFetchError{BookingID: bookingID, Err: s.mapLookupError(err, bookingID)}
	}

	if booking.CustomerID != customerID {
		return nil, &trackingerrors.SnapshotFetchError{
			BookingID: bookingID,
			Err:       apperrors.Forbidden("Booking belongs to a different customer"),
		}
	}

	snapshot := &model.TrackingSnapshot{
		BookingID:        booking.ID,
		PriestID:         booking.PriestID,
		CurrentLocation:  booking.CurrentLocation,
		EstimatedArrival: booking.EstimatedArrival,
		JourneyStarted:   booking.JourneyStarted,
		Status:           booking.Status,
	}

	latest, err := s.samples.Latest(ctx, bookingID)
	if err != nil {
		s.cfg.Log.Warn("Failed to read latest location sample",
			"booking_id", bookingID,
			"error", err,
		)
		snapshot.CurrentLocation = nil
		return snapshot, nil
	}
	if latest != nil {
		snapshot.CurrentLocation = &model.LatLng{
			Latitude:  latest.Latitude,
			Longitude: latest.Longitude,
		}
	}

	return snapshot, nil
}

// findAssignedBooking loads the booking and verifies the priest assignment,
// mapping store errors onto the API taxonomy.
func (s *trackingService) findAssignedBooking(ctx context.Context, bookingID, priestID string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, s.mapLookupError(err, bookingID)
	}

	if booking.PriestID != priestID {
		return nil, apperrors.Forbidden("Priest is not assigned to this booking")
	}

	return booking, nil
}

func (s *trackingService) mapLookupError(err error, bookingID string) error {
	if errors.Is(err, trackingerrors.ErrBookingNotFound) {
		return apperrors.NotFoundWithID("Booking", bookingID)
	}
	if errors.Is(err, trackingerrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal("Failed to retrieve booking", err)
}

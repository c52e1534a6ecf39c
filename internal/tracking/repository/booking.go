package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	trackingerrors "purohit/internal/tracking/errors"
	"purohit/pkg/config"
	"purohit/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	BookingCollection = "Bookings"
)

type BookingRepository interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	StartJourney(ctx context.Context, id string, eta *time.Time) error
	SetCurrentLocation(ctx context.Context, id string, loc model.LatLng) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(BookingCollection),
	}
}

// withTimeout caps the operation at the configured timeout without extending
// any deadline the caller already set.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}
	return context.WithTimeout(ctx, timeout)
}

// Booking IDs are stored as hex strings; reject anything else before it
// reaches the store.
func validateID(id string) error {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return fmt.Errorf("%w: %s", trackingerrors.ErrInvalidID, id)
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return nil, err
	}

	var booking model.Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, trackingerrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

// StartJourney sets journey_started and the estimated arrival. The flag only
// ever moves to true here, so a redundant call is a harmless overwrite.
func (r *mongoBookingRepository) StartJourney(ctx context.Context, id string, eta *time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return err
	}

	set := bson.M{"journey_started": true}
	if eta != nil {
		set["estimated_arrival"] = *eta
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to start journey: %w", err)
	}

	if result.MatchedCount == 0 {
		return trackingerrors.ErrBookingNotFound
	}

	return nil
}

func (r *mongoBookingRepository) SetCurrentLocation(ctx context.Context, id string, loc model.LatLng) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"current_location": loc}}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to set current location: %w", err)
	}

	if result.MatchedCount == 0 {
		return trackingerrors.ErrBookingNotFound
	}

	return nil
}

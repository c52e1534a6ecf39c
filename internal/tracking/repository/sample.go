package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	trackingerrors "purohit/internal/tracking/errors"
	"purohit/pkg/config"
	"purohit/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	SampleCollection = "LocationSamples"
)

type SampleRepository interface {
	Append(ctx context.Context, sample *model.LocationSample) error
	Latest(ctx context.Context, bookingID string) (*model.LocationSample, error)
}

type mongoSampleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSampleRepository(cfg *config.Config) SampleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSampleRepository{
		cfg:        cfg,
		collection: db.Collection(SampleCollection),
	}
}

func (r *mongoSampleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}
	return context.WithTimeout(ctx, timeout)
}

// Append inserts the full sample document. If the insert is rejected, a
// reduced document carrying only the fields older readers expect is written
// into the same collection, so one malformed optional field cannot lose a
// position fix. Samples are append-only; nothing here updates in place.
func (r *mongoSampleRepository) Append(ctx context.Context, sample *model.LocationSample) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	sample.CreatedAt = now
	sample.UpdatedAt = now
	if sample.ID == "" {
		sample.ID = uuid.New().String()
	}

	_, err := r.collection.InsertOne(ctx, sample)
	if err == nil {
		return nil
	}

	reduced := bson.M{
		"_id":        uuid.New().String(),
		"priest_id":  sample.PriestID,
		"booking_id": sample.BookingID,
		"latitude":   sample.Latitude,
		"longitude":  sample.Longitude,
		"created_at": now,
		"updated_at": now,
	}

	if _, fallbackErr := r.collection.InsertOne(ctx, reduced); fallbackErr != nil {
		return fmt.Errorf("failed to append location sample: %w (reduced write also failed: %v)", err, fallbackErr)
	}

	return nil
}

// Latest returns the newest sample for a booking by updated_at. Duplicate
// coordinates are distinct documents; the most recently written one wins.
func (r *mongoSampleRepository) Latest(ctx context.Context, bookingID string) (*model.LocationSample, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	var sample model.LocationSample
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}, opts).Decode(&sample)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", trackingerrors.ErrSampleUnreadable, err)
	}

	return &sample, nil
}

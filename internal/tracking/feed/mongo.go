package feed

import (
	"context"
	"fmt"
	"strings"

	"purohit/internal/tracking/repository"
	"purohit/pkg/config"
	"purohit/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// bookingChangeEvent is the change stream document for a booking update,
// opened with fullDocument=updateLookup so the post-image rides along.
type bookingChangeEvent struct {
	FullDocument      model.Booking `bson:"fullDocument"`
	UpdateDescription struct {
		UpdatedFields bson.M `bson:"updatedFields"`
	} `bson:"updateDescription"`
}

// toPatch maps only the fields the update actually touched. A replace event
// has no updateDescription and patches every journey field.
func (e *bookingChangeEvent) toPatch(bookingID string) model.JourneyPatch {
	patch := model.JourneyPatch{BookingID: bookingID}

	updated := func(field string) bool {
		if len(e.UpdateDescription.UpdatedFields) == 0 {
			return true
		}
		for key := range e.UpdateDescription.UpdatedFields {
			if key == field || strings.HasPrefix(key, field+".") {
				return true
			}
		}
		return false
	}

	if updated("status") {
		status := e.FullDocument.Status
		patch.Status = &status
	}
	if updated("journey_started") {
		started := e.FullDocument.JourneyStarted
		patch.JourneyStarted = &started
	}
	if updated("estimated_arrival") {
		patch.EstimatedArrival = e.FullDocument.EstimatedArrival
	}
	if updated("current_location") {
		patch.CurrentLocation = e.FullDocument.CurrentLocation
	}

	return patch
}

type sampleChangeEvent struct {
	FullDocument model.LocationSample `bson:"fullDocument"`
}

type mongoStreamFactory struct {
	cfg *config.Config
}

// NewMongoStreamFactory opens change streams against the tracking store.
// Change streams need a replica set; standalone Mongo fails at Watch time.
func NewMongoStreamFactory(cfg *config.Config) StreamFactory {
	return &mongoStreamFactory{cfg: cfg}
}

func (f *mongoStreamFactory) BookingUpdates(ctx context.Context, bookingID string) (ChangeStream, error) {
	collection := f.cfg.Client.Mongo.Database(f.cfg.MongoDatabaseName).Collection(repository.BookingCollection)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType":   bson.M{"$in": bson.A{"update", "replace"}},
			"documentKey._id": bookingID,
		}}},
	}

	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open booking update stream: %w", err)
	}

	return stream, nil
}

func (f *mongoStreamFactory) SampleInserts(ctx context.Context, bookingID string) (ChangeStream, error) {
	collection := f.cfg.Client.Mongo.Database(f.cfg.MongoDatabaseName).Collection(repository.SampleCollection)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType":           "insert",
			"fullDocument.booking_id": bookingID,
		}}},
	}

	stream, err := collection.Watch(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to open sample insert stream: %w", err)
	}

	return stream, nil
}

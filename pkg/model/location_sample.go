package model

import (
	"time"
)

// LatLng is the denormalized coordinate pair carried on bookings and snapshots.
type LatLng struct {
	Latitude  float64 `json:"latitude" bson:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" bson:"longitude" validate:"min=-180,max=180"`
}

// LocationSample is a single device position reading. Samples are append-only:
// they are never updated or deleted once written.
type LocationSample struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty"`
	PriestID  string    `json:"priest_id" bson:"priest_id" validate:"required"`
	BookingID string    `json:"booking_id" bson:"booking_id" validate:"required"`
	Latitude  float64   `json:"latitude" bson:"latitude" validate:"latitude"`
	Longitude float64   `json:"longitude" bson:"longitude" validate:"longitude"`
	Heading   *float64  `json:"heading,omitempty" bson:"heading,omitempty" validate:"omitempty,min=0,max=360"`
	Speed     *float64  `json:"speed,omitempty" bson:"speed,omitempty" validate:"omitempty,min=0"`
	Accuracy  *float64  `json:"accuracy,omitempty" bson:"accuracy,omitempty" validate:"omitempty,min=0"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

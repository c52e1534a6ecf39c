package model

import (
	"time"
)

// Booking statuses. The booking lifecycle is owned by the booking subsystem;
// the tracking core only reads Status and mutates the journey fields.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Booking is the journey-relevant subset of a booking record.
// JourneyStarted is monotonic: once true, this subsystem never resets it.
type Booking struct {
	ID               string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PriestID         string     `json:"priest_id" bson:"priest_id" validate:"required"`
	CustomerID       string     `json:"customer_id" bson:"customer_id" validate:"required"`
	Status           string     `json:"status" bson:"status" validate:"required,oneof=pending confirmed completed cancelled"`
	JourneyStarted   bool       `json:"journey_started" bson:"journey_started"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty" bson:"estimated_arrival,omitempty"`
	CurrentLocation  *LatLng    `json:"current_location,omitempty" bson:"current_location,omitempty"`
	CreatedAt        time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// JourneyStart is the request body for starting a journey on a confirmed booking.
type JourneyStart struct {
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty" validate:"omitempty"`
}

// JourneyState is the priest-side view of the journey fields, read before
// starting a journey to gate redundant starts.
type JourneyState struct {
	BookingID        string     `json:"booking_id"`
	Status           string     `json:"status"`
	JourneyStarted   bool       `json:"journey_started"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
}

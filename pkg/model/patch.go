package model

import (
	"time"
)

// JourneyPatch is a partial update to a booking's journey fields, delivered by
// the booking change feed. Nil fields mean "unchanged".
type JourneyPatch struct {
	BookingID        string     `json:"booking_id"`
	Status           *string    `json:"status,omitempty"`
	JourneyStarted   *bool      `json:"journey_started,omitempty"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	CurrentLocation  *LatLng    `json:"current_location,omitempty"`
}

// LocationPatch carries a newly inserted location sample from the sample feed.
type LocationPatch struct {
	Sample LocationSample `json:"sample"`
}

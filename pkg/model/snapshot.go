package model

import (
	"time"
)

// TrackingSnapshot is the assembled tracking view for one booking: the journey
// fields joined with the newest location sample. It is derived at read time and
// patched incrementally on the consumer side, never persisted.
type TrackingSnapshot struct {
	BookingID        string     `json:"booking_id"`
	PriestID         string     `json:"priest_id"`
	CurrentLocation  *LatLng    `json:"current_location,omitempty"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	JourneyStarted   bool       `json:"journey_started"`
	Status           string     `json:"status"`
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"purohit/internal/tracking/service"
	"purohit/pkg/client"
	httputil "purohit/pkg/http"
	"purohit/pkg/logger"
	"purohit/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// TrackingHandler exposes the journey tracking API. Identity arrives in the
// X-Priest-ID / X-Customer-ID headers set by the platform gateway; the
// handlers trust them the same way upstream auth is trusted elsewhere.
type TrackingHandler struct {
	service service.TrackingService
	log     *logger.Logger
}

func NewTrackingHandler(service service.TrackingService, log *logger.Logger) *TrackingHandler {
	return &TrackingHandler{
		service: service,
		log:     log,
	}
}

func (h *TrackingHandler) StartJourney(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")
	priestID := r.Header.Get(client.HeaderPriestID)

	var start model.JourneyStart
	if err := json.NewDecoder(r.Body).Decode(&start); err != nil && !errors.Is(err, io.EOF) {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "StartJourney", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.StartJourney(r.Context(), bookingID, priestID, start.EstimatedArrival); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "StartJourney", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *TrackingHandler) UpdateLocation(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")
	priestID := r.Header.Get(client.HeaderPriestID)

	var sample model.LocationSample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "UpdateLocation", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.UpdateLocation(r.Context(), priestID, bookingID, &sample); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "UpdateLocation", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, sample); err != nil {
		h.log.Error("failed to write created response", "handler", "UpdateLocation", "operation", "WriteCreated", "error", err)
	}
}

func (h *TrackingHandler) JourneyState(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")
	priestID := r.Header.Get(client.HeaderPriestID)

	state, err := h.service.JourneyState(r.Context(), bookingID, priestID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "JourneyState", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, state); err != nil {
		h.log.Error("failed to write success response", "handler", "JourneyState", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TrackingHandler) Snapshot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	bookingID := ps.ByName("id")
	customerID := r.Header.Get(client.HeaderCustomerID)

	snapshot, err := h.service.Snapshot(r.Context(), bookingID, customerID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Snapshot", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, snapshot); err != nil {
		h.log.Error("failed to write success response", "handler", "Snapshot", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TrackingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings/:id/journey", h.StartJourney)
	router.GET("/api/v1/bookings/:id/journey", h.JourneyState)
	router.POST("/api/v1/bookings/:id/location", h.UpdateLocation)
	router.GET("/api/v1/bookings/:id/tracking", h.Snapshot)
}

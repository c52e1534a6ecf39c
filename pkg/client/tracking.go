package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"purohit/pkg/model"
	"time"
)

// Identity headers stand in for the platform's session layer; callers are
// trusted the same way upstream auth is trusted by the server.
const (
	HeaderPriestID       = "X-Priest-ID"
	HeaderCustomerID     = "X-Customer-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// TrackingClient is the device- and customer-side client for the tracking API.
type TrackingClient struct {
	httpClient *HttpClient
}

func NewTrackingClient(baseURL string) *TrackingClient {
	return &TrackingClient{
		httpClient: NewHttpClient(baseURL),
	}
}

func (c *TrackingClient) StartJourney(ctx context.Context, bookingID, priestID string, eta *time.Time, idempotencyKey string) error {
	headers := map[string]string{HeaderPriestID: priestID}
	if idempotencyKey != "" {
		headers[HeaderIdempotencyKey] = idempotencyKey
	}

	body := model.JourneyStart{EstimatedArrival: eta}
	path := "/api/v1/bookings/" + url.PathEscape(bookingID) + "/journey"

	resp, err := c.httpClient.POST(ctx, path, body, headers)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("start journey failed (%d): %s", resp.StatusCode, GetErrorMessage(resp))
	}
	return nil
}

func (c *TrackingClient) UpdateLocation(ctx context.Context, priestID, bookingID string, sample model.LocationSample) error {
	path := "/api/v1/bookings/" + url.PathEscape(bookingID) + "/location"

	resp, err := c.httpClient.POST(ctx, path, sample, map[string]string{HeaderPriestID: priestID})
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("location update failed (%d): %s", resp.StatusCode, GetErrorMessage(resp))
	}
	return nil
}

func (c *TrackingClient) JourneyState(ctx context.Context, bookingID, priestID string) (*model.JourneyState, error) {
	path := "/api/v1/bookings/" + url.PathEscape(bookingID) + "/journey"

	resp, err := c.httpClient.GET(ctx, path, map[string]string{HeaderPriestID: priestID})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("journey state fetch failed (%d): %s", resp.StatusCode, GetErrorMessage(resp))
	}

	var state model.JourneyState
	if err := decodeData(resp, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *TrackingClient) Snapshot(ctx context.Context, bookingID, customerID string) (*model.TrackingSnapshot, error) {
	path := "/api/v1/bookings/" + url.PathEscape(bookingID) + "/tracking"

	resp, err := c.httpClient.GET(ctx, path, map[string]string{HeaderCustomerID: customerID})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot fetch failed (%d): %s", resp.StatusCode, GetErrorMessage(resp))
	}

	var snapshot model.TrackingSnapshot
	if err := decodeData(resp, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func decodeData(resp *Response, target any) error {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return fmt.Errorf("could not decode response wrapper: %w", err)
	}
	if err := json.Unmarshal(wrapper.Data, target); err != nil {
		return fmt.Errorf("could not decode response data: %w", err)
	}
	return nil
}

// Package gateway fetches booking and flight records through the service's
// own HTTP API, so authorization and auditing stay in one layer. Identity is
// derived from the bearer token by the API, never from a raw user id here.
//
// By contract the gateway reports absence as its only failure signal: a
// missing record, an auth rejection and a network error all come back as nil.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"gateready.app/booking-assistant/internal/store"
)

const requestTimeout = 5 * time.Second

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) LatestBooking(ctx context.Context, accessToken string) *store.Booking {
	var booking store.Booking
	if !c.getJSON(ctx, accessToken, "/api/bookings/latest", &booking) {
		return nil
	}
	return &booking
}

func (c *Client) AllBookings(ctx context.Context, accessToken string) []store.Booking {
	var bookings []store.Booking
	if !c.getJSON(ctx, accessToken, "/api/bookings", &bookings) {
		return nil
	}
	return bookings
}

func (c *Client) BookingByFlight(ctx context.Context, accessToken, flightNumber string) *store.Booking {
	if flightNumber == "" {
		return nil
	}
	var booking store.Booking
	if !c.getJSON(ctx, accessToken, "/api/bookings/flight/"+url.PathEscape(flightNumber), &booking) {
		return nil
	}
	return &booking
}

func (c *Client) FlightInfo(ctx context.Context, accessToken, flightNumber string) *store.FlightInfo {
	if flightNumber == "" {
		return nil
	}
	var info store.FlightInfo
	if !c.getJSON(ctx, accessToken, "/api/flight-info/"+url.PathEscape(flightNumber), &info) {
		return nil
	}
	return &info
}

// getJSON reports whether the lookup produced a decodable 200 response.
// Every other outcome is absence.
func (c *Client) getJSON(ctx context.Context, accessToken, path string, out any) bool {
	if accessToken == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	return json.NewDecoder(resp.Body).Decode(out) == nil
}

// ABOUTME: Device location lookup for onboarding coordinates
// ABOUTME: IP-based HTTP locator plus a fixed locator for flags and tests
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// DefaultEndpoint answers with {"status":"success","lat":..,"lon":..}.
const DefaultEndpoint = "http://ip-api.com/json/?fields=status,message,lat,lon"

// Timeout bounds a single location attempt.
const Timeout = 10 * time.Second

var ErrUnavailable = errors.New("location unavailable")

// Coordinates are decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Strings formats the coordinates the way profiles store them.
func (c Coordinates) Strings() (lat, lon string) {
	return strconv.FormatFloat(c.Latitude, 'f', -1, 64), strconv.FormatFloat(c.Longitude, 'f', -1, 64)
}

type Locator interface {
	Locate(ctx context.Context) (Coordinates, error)
}

// IPLocator resolves an approximate position from the caller's public IP.
type IPLocator struct {
	Endpoint string
	Client   *http.Client
}

func NewIPLocator(endpoint string) *IPLocator {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &IPLocator{Endpoint: endpoint, Client: &http.Client{Timeout: Timeout}}
}

type ipResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

func (l *IPLocator) Locate(ctx context.Context) (Coordinates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.Endpoint, nil)
	if err != nil {
		return Coordinates{}, err
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body ipResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Coordinates{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if body.Status != "" && body.Status != "success" {
		return Coordinates{}, fmt.Errorf("%w: %s", ErrUnavailable, body.Message)
	}
	if body.Lat == nil || body.Lon == nil {
		return Coordinates{}, fmt.Errorf("%w: response has no coordinates", ErrUnavailable)
	}
	return Coordinates{Latitude: *body.Lat, Longitude: *body.Lon}, nil
}

// Static always answers with the same result.
type Static struct {
	Coords Coordinates
	Err    error
}

func (s Static) Locate(ctx context.Context) (Coordinates, error) {
	if s.Err != nil {
		return Coordinates{}, s.Err
	}
	return s.Coords, nil
}

package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"rideprice/internal/fare"
)

// Location is a WGS84 coordinate.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ParseLocation parses "lat,lng".
func ParseLocation(s string) (Location, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return Location{}, fmt.Errorf("location %q: want lat,lng", s)
	}
	var loc Location
	var err error
	if loc.Latitude, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Location{}, fmt.Errorf("location %q: latitude: %w", s, err)
	}
	if loc.Longitude, err = strconv.ParseFloat(strings.TrimSpace(lng), 64); err != nil {
		return Location{}, fmt.Errorf("location %q: longitude: %w", s, err)
	}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range", l.Longitude)
	}
	return nil
}

func (l Location) String() string {
	return strconv.FormatFloat(l.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(l.Longitude, 'f', -1, 64)
}

// Query describes a ride to price.
type Query struct {
	Origin         Location `json:"origin"`
	Destination    Location `json:"destination"`
	WaitingMinutes int      `json:"waiting_minutes,omitempty"`
}

// Key identifies equal queries.
func (q Query) Key() string {
	return q.Origin.String() + ";" + q.Destination.String() + ";" + strconv.Itoa(q.WaitingMinutes)
}

// Client fetches the raw price document of one provider. The document is
// returned untouched so it can be normalized or captured as a fixture.
type Client interface {
	Provider() fare.Provider
	Fetch(ctx context.Context, q Query) ([]byte, error)
}

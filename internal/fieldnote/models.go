package fieldnote

import (
	"time"

	"backend-fieldnotes/internal/gpx"
)

// TripTypes enumerates the valid trip categories.
var TripTypes = []string{"hike", "overnighter", "winter", "scramble", "paddle", "other"}

type FieldNote struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	TripType        string    `json:"trip_type"`
	Date            time.Time `json:"date"`
	DistanceMiles   float64   `json:"distance_miles"`
	ElevationGainFt float64   `json:"elevation_gain_ft"`
	// Track is the persisted GPX payload: {"coordinates": [[lon,lat],...]}.
	Track     *gpx.Track `json:"track,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func ValidTripType(t string) bool {
	for _, v := range TripTypes {
		if v == t {
			return true
		}
	}
	return false
}

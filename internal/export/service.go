// Package export renders field notes for download: a GeoJSON feature
// collection per note for map tooling, and a flat CSV of all notes.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"

	"backend-fieldnotes/internal/fieldnote"
	"backend-fieldnotes/internal/photo"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type Service struct {
	notes  *fieldnote.Service
	photos *photo.Service
}

func NewService(notes *fieldnote.Service, photos *photo.Service) *Service {
	return &Service{notes: notes, photos: photos}
}

// GeoJSON builds a feature collection for one field note: the route as
// a LineString plus a Point per geotagged photo.
func (s *Service) GeoJSON(ctx context.Context, noteID string) ([]byte, error) {
	note, err := s.notes.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	photos, err := s.photos.List(ctx, noteID)
	if err != nil {
		return nil, err
	}

	fc := geojson.NewFeatureCollection()

	if note.Track != nil && len(note.Track.Coordinates) > 0 {
		line := make(orb.LineString, 0, len(note.Track.Coordinates))
		for _, c := range note.Track.Coordinates {
			line = append(line, orb.Point{c[0], c[1]})
		}
		route := geojson.NewFeature(line)
		route.Properties["title"] = note.Title
		route.Properties["trip_type"] = note.TripType
		route.Properties["distance_miles"] = note.DistanceMiles
		route.Properties["elevation_gain_ft"] = note.ElevationGainFt
		fc.Append(route)
	}

	for _, p := range photos {
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}
		marker := geojson.NewFeature(orb.Point{*p.Longitude, *p.Latitude})
		marker.Properties["photo_id"] = p.ID
		marker.Properties["url"] = p.URL
		if p.TakenAt != nil {
			marker.Properties["taken_at"] = p.TakenAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		fc.Append(marker)
	}

	return fc.MarshalJSON()
}

var csvHeader = []string{"id", "title", "trip_type", "date", "distance_miles", "elevation_gain_ft", "created_at"}

// CSV flattens every field note into one row.
func (s *Service) CSV(ctx context.Context) ([]byte, error) {
	notes, err := s.notes.List(ctx, "", "", "")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, n := range notes {
		date := ""
		if !n.Date.IsZero() {
			date = n.Date.Format("2006-01-02")
		}
		row := []string{
			n.ID,
			n.Title,
			n.TripType,
			date,
			strconv.FormatFloat(n.DistanceMiles, 'f', 2, 64),
			strconv.FormatFloat(n.ElevationGainFt, 'f', 0, 64),
			n.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

package gpx

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func wrapGPX(metadataTime, trkTime, body string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><gpx version="1.1" creator="test">`)
	if metadataTime != "" {
		b.WriteString("<metadata><time>" + metadataTime + "</time></metadata>")
	}
	b.WriteString("<trk>")
	if trkTime != "" {
		b.WriteString("<time>" + trkTime + "</time>")
	}
	b.WriteString("<trkseg>" + body + "</trkseg></trk></gpx>")
	return []byte(b.String())
}

func TestParseComputesDistanceAndGain(t *testing.T) {
	body := `
		<trkpt lat="47.6062" lon="-122.3321"><ele>10</ele><time>2024-06-01T08:00:00Z</time></trkpt>
		<trkpt lat="47.6162" lon="-122.3321"><ele>25</ele></trkpt>
		<trkpt lat="47.6262" lon="-122.3321"><ele>20</ele></trkpt>
		<trkpt lat="47.6362" lon="-122.3321"><ele>40</ele></trkpt>`
	track, err := Parse(wrapGPX("", "", body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(track.Coordinates) != 4 {
		t.Fatalf("expected 4 coordinates, got %d", len(track.Coordinates))
	}
	// 0.03 degrees of latitude is roughly 2 miles.
	if track.DistanceMiles < 1.9 || track.DistanceMiles > 2.3 {
		t.Fatalf("unexpected distance: %v", track.DistanceMiles)
	}
	// Upward deltas only: (25-10) + (40-20) = 35 m = ~114.8 ft.
	if track.ElevationGainFt < 114 || track.ElevationGainFt > 116 {
		t.Fatalf("unexpected elevation gain: %v", track.ElevationGainFt)
	}
	if track.Coordinates[0][0] != -122.3321 || track.Coordinates[0][1] != 47.6062 {
		t.Fatalf("coordinates must be [lon, lat] pairs, got %v", track.Coordinates[0])
	}
}

func TestParseDistanceMonotonic(t *testing.T) {
	var body strings.Builder
	prev := 0.0
	for i := 0; i < 10; i++ {
		body.WriteString(fmt.Sprintf(`<trkpt lat="%f" lon="10.0"></trkpt>`, 45.0+float64(i)*0.01))
		track, err := Parse(wrapGPX("", "", body.String()))
		if err != nil {
			t.Fatalf("parse at %d points: %v", i+1, err)
		}
		if track.DistanceMiles < prev {
			t.Fatalf("distance decreased from %v to %v", prev, track.DistanceMiles)
		}
		prev = track.DistanceMiles
	}
}

func TestParseIdenticalPointsZeroStats(t *testing.T) {
	body := strings.Repeat(`<trkpt lat="45.0" lon="10.0"><ele>100</ele></trkpt>`, 3)
	track, err := Parse(wrapGPX("", "", body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if track.DistanceMiles != 0 {
		t.Fatalf("expected zero distance, got %v", track.DistanceMiles)
	}
	if track.ElevationGainFt != 0 {
		t.Fatalf("expected zero gain, got %v", track.ElevationGainFt)
	}
}

func TestParseDropsInvalidPoints(t *testing.T) {
	body := `
		<trkpt lat="45.0" lon="10.0"></trkpt>
		<trkpt lat="not-a-number" lon="10.0"></trkpt>
		<trkpt lat="45.1" lon="banana"></trkpt>
		<trkpt lat="45.2" lon="10.0"></trkpt>`
	track, err := Parse(wrapGPX("", "", body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(track.Coordinates) != 2 {
		t.Fatalf("expected invalid points dropped, got %d coordinates", len(track.Coordinates))
	}
}

func TestParseNoTrackPoints(t *testing.T) {
	_, err := Parse(wrapGPX("", "", ""))
	if !errors.Is(err, ErrNoTrackPoints) {
		t.Fatalf("expected ErrNoTrackPoints, got %v", err)
	}
}

func TestParseAllPointsInvalid(t *testing.T) {
	body := `<trkpt lat="x" lon="y"></trkpt><trkpt lat="" lon=""></trkpt>`
	_, err := Parse(wrapGPX("", "", body))
	if !errors.Is(err, ErrNoValidPoints) {
		t.Fatalf("expected ErrNoValidPoints, got %v", err)
	}
}

func TestParseMalformedXML(t *testing.T) {
	_, err := Parse([]byte("<gpx><trk>"))
	if err == nil {
		t.Fatalf("expected error for malformed xml")
	}
}

func TestParseDateFallbacks(t *testing.T) {
	meta := "2024-06-01T08:00:00Z"
	pointTime := "2024-06-02T09:30:00Z"
	trkTime := "2024-06-03T10:00:00Z"
	point := `<trkpt lat="45.0" lon="10.0"><time>` + pointTime + `</time></trkpt>`
	bare := `<trkpt lat="45.0" lon="10.0"></trkpt>`

	track, err := Parse(wrapGPX(meta, trkTime, point))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !track.Date.Equal(mustTime(t, meta)) {
		t.Fatalf("expected metadata time, got %v", track.Date)
	}

	track, err = Parse(wrapGPX("", trkTime, point))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !track.Date.Equal(mustTime(t, pointTime)) {
		t.Fatalf("expected first point time, got %v", track.Date)
	}

	track, err = Parse(wrapGPX("", trkTime, bare))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !track.Date.Equal(mustTime(t, trkTime)) {
		t.Fatalf("expected track time, got %v", track.Date)
	}

	track, err = Parse(wrapGPX("", "", bare))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !track.Date.IsZero() {
		t.Fatalf("expected zero date, got %v", track.Date)
	}
}

func TestHaversineMiles(t *testing.T) {
	// Seattle to Portland, roughly 145 miles.
	d := haversineMiles(47.6062, -122.3321, 45.5152, -122.6784)
	if d < 130 || d > 160 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return ts
}

package gpx

import (
	"encoding/xml"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	earthRadiusMiles = 3959
	feetPerMeter     = 3.28084
)

// Track is the result of parsing a GPX payload: the ordered route
// coordinates plus the statistics derived from them. Distance and
// elevation gain are computed once here and stored with the field
// note; they are never recomputed afterward.
type Track struct {
	// Coordinates are [longitude, latitude] pairs in track order.
	Coordinates     [][2]float64 `json:"coordinates"`
	DistanceMiles   float64      `json:"-"`
	ElevationGainFt float64      `json:"-"`
	// Date is the best-effort capture date: metadata time, else the
	// first track point's time, else the track-level time. Zero when
	// the file carries no timestamps at all.
	Date time.Time `json:"-"`
}

var (
	ErrNoTrackPoints = errors.New("gpx: no track points found")
	ErrNoValidPoints = errors.New("gpx: no track points with valid coordinates")
	ErrMalformed     = errors.New("gpx: malformed document")
)

type gpxDoc struct {
	XMLName  xml.Name `xml:"gpx"`
	Metadata struct {
		Time string `xml:"time"`
	} `xml:"metadata"`
	Tracks []gpxTrk `xml:"trk"`
}

type gpxTrk struct {
	Time     string `xml:"time"`
	Segments []struct {
		Points []gpxTrkpt `xml:"trkpt"`
	} `xml:"trkseg"`
}

// Lat and lon stay strings so a single malformed point drops without
// failing the whole document.
type gpxTrkpt struct {
	Lat  string `xml:"lat,attr"`
	Lon  string `xml:"lon,attr"`
	Ele  string `xml:"ele"`
	Time string `xml:"time"`
}

// Parse extracts the route and derived statistics from raw GPX XML.
// Points with non-numeric lat/lon are dropped; elevation gain counts
// only upward deltas between consecutive readings, converted to feet.
func Parse(data []byte) (Track, error) {
	var doc gpxDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Track{}, errors.Join(ErrMalformed, err)
	}

	var points []gpxTrkpt
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			points = append(points, seg.Points...)
		}
	}
	if len(points) == 0 {
		return Track{}, ErrNoTrackPoints
	}

	track := Track{Coordinates: make([][2]float64, 0, len(points))}

	var (
		prevLat, prevLon float64
		prevEleM         float64
		havePrev         bool
		havePrevEle      bool
		gainMeters       float64
		firstPointTime   string
	)
	for _, pt := range points {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(pt.Lat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(pt.Lon), 64)
		if errLat != nil || errLon != nil {
			continue
		}

		track.Coordinates = append(track.Coordinates, [2]float64{lon, lat})
		if firstPointTime == "" && pt.Time != "" {
			firstPointTime = pt.Time
		}

		if havePrev {
			track.DistanceMiles += haversineMiles(prevLat, prevLon, lat, lon)
		}
		prevLat, prevLon = lat, lon
		havePrev = true

		if eleM, err := strconv.ParseFloat(strings.TrimSpace(pt.Ele), 64); err == nil {
			if havePrevEle && eleM > prevEleM {
				gainMeters += eleM - prevEleM
			}
			prevEleM = eleM
			havePrevEle = true
		}
	}
	if len(track.Coordinates) == 0 {
		return Track{}, ErrNoValidPoints
	}
	track.ElevationGainFt = gainMeters * feetPerMeter

	for _, candidate := range []string{doc.Metadata.Time, firstPointTime, trackTime(doc.Tracks)} {
		if candidate == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, candidate); err == nil {
			track.Date = ts
			break
		}
	}

	return track, nil
}

func trackTime(tracks []gpxTrk) string {
	for _, trk := range tracks {
		if trk.Time != "" {
			return trk.Time
		}
	}
	return ""
}

// haversineMiles returns the great-circle distance between two
// coordinates using an Earth radius of 3959 miles.
func haversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

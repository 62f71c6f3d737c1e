package domain

import (
	"fmt"
	"net/url"
	"time"
)

type TrackingPing struct {
	RecordedAt time.Time
	Lat        float64
	Lng        float64
	AccuracyM  float64
}

type Destination struct {
	Lat *float64
	Lng *float64
}

// Marker is the single geographic point chosen for map display.
type Marker struct {
	Lat   float64
	Lng   float64
	Label string
}

// FallbackMarker is shown when a request has no crew pings yet, so the map
// never renders without a coordinate.
var FallbackMarker = Marker{Lat: 41.8781, Lng: -87.6298, Label: "Demo marker (Chicago)"}

// SelectMarker picks the most recent crew ping (the feed is newest-first) or
// falls back to the demo coordinate.
func SelectMarker(pings []TrackingPing) Marker {
	if len(pings) == 0 {
		return FallbackMarker
	}
	last := pings[0]
	return Marker{
		Lat:   last.Lat,
		Lng:   last.Lng,
		Label: fmt.Sprintf("Last crew ping • %s", last.RecordedAt.Format("3:04:05 PM")),
	}
}

// mapBBoxDelta is the fixed angular half-width of the map viewport in degrees.
const mapBBoxDelta = 0.25

// OSMEmbedURL builds the OpenStreetMap embed URL centered on the marker with
// a fixed-delta bounding box.
func OSMEmbedURL(m Marker) string {
	u := url.URL{Scheme: "https", Host: "www.openstreetmap.org", Path: "/export/embed.html"}
	q := u.Query()
	q.Set("bbox", fmt.Sprintf("%g,%g,%g,%g", m.Lng-mapBBoxDelta, m.Lat-mapBBoxDelta, m.Lng+mapBBoxDelta, m.Lat+mapBBoxDelta))
	q.Set("layer", "mapnik")
	q.Set("marker", fmt.Sprintf("%g,%g", m.Lat, m.Lng))
	u.RawQuery = q.Encode()
	return u.String()
}

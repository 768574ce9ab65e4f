// Package entities contains the core domain objects for the orphanage-bot application
package entities

import (
	"time"

	"github.com/paulmach/orb"
)

// Coordinate is a geographic latitude/longitude pair
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point converts the coordinate into an orb point (longitude first)
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// CoordinateFromPoint is the inverse of Coordinate.Point
func CoordinateFromPoint(p orb.Point) Coordinate {
	return Coordinate{Latitude: p.Lat(), Longitude: p.Lon()}
}

// Image is a photo attached to an orphanage on the server
type Image struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Orphanage is the server-authoritative listing; the client never modifies it
type Orphanage struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	About          string  `json:"about"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Instructions   string  `json:"instructions"`
	OpeningHours   string  `json:"opening_hours"`
	OpenOnWeekends bool    `json:"open_on_weekends"`
	Images         []Image `json:"images"`
}

// Coordinate returns the orphanage position
func (o Orphanage) Coordinate() Coordinate {
	return Coordinate{Latitude: o.Latitude, Longitude: o.Longitude}
}

// OrphanageDraft is the in-progress state of the creation form.
// It lives only as long as the form screen does.
type OrphanageDraft struct {
	Name           string
	About          string
	Instructions   string
	OpeningHours   string
	OpenOnWeekends bool
	ImageURIs      []string
}

// NewOrphanageDraft returns an empty draft; weekends default to open
func NewOrphanageDraft() OrphanageDraft {
	return OrphanageDraft{OpenOnWeekends: true}
}

// SubmissionOutcome is the result of one create request
type SubmissionOutcome string

const (
	OutcomeCreated SubmissionOutcome = "created"
	OutcomeFailed  SubmissionOutcome = "failed"
)

// SubmissionRecord is one journaled creation attempt
type SubmissionRecord struct {
	ID         int64
	ChatID     int64 // 0 for the command-line client
	Name       string
	Latitude   float64
	Longitude  float64
	ImageCount int
	Outcome    SubmissionOutcome
	Error      string
	CreatedAt  time.Time
}

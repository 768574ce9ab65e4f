package usecases

import (
	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/paulmach/orb"
)

// MapRegion is the visible area of a map: a center and the span around it
type MapRegion struct {
	Center         entities.Coordinate
	LatitudeDelta  float64
	LongitudeDelta float64
}

// Bound returns the rectangle covered by the region
func (r MapRegion) Bound() orb.Bound {
	halfLat, halfLng := r.LatitudeDelta/2, r.LongitudeDelta/2
	return orb.Bound{
		Min: orb.Point{r.Center.Longitude - halfLng, r.Center.Latitude - halfLat},
		Max: orb.Point{r.Center.Longitude + halfLng, r.Center.Latitude + halfLat},
	}
}

// Contains reports whether c is inside the visible area
func (r MapRegion) Contains(c entities.Coordinate) bool {
	return r.Bound().Contains(c.Point())
}

var (
	// ListRegion is where the orphanages map opens
	ListRegion = MapRegion{
		Center:         entities.Coordinate{Latitude: -6.923517454197994, Longitude: -38.966719623245254},
		LatitudeDelta:  0.008,
		LongitudeDelta: 0.008,
	}

	// PickerRegion is where the position picker opens
	PickerRegion = MapRegion{
		Center:         entities.Coordinate{Latitude: -6.5205485, Longitude: -38.4155765},
		LatitudeDelta:  0.008,
		LongitudeDelta: 0.008,
	}
)

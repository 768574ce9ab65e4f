package usecases

import (
	"context"
	"sort"
	"sync"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/integration"
	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
)

// ErrUnknownMarker is returned when a marker id is not among the loaded orphanages
var ErrUnknownMarker = errors.New("no marker for this orphanage")

// Marker is one orphanage pin on the map
type Marker struct {
	ID       int64
	Name     string
	Position entities.Coordinate
}

// NearbyOrphanage pairs an orphanage with its distance from a reference point
type NearbyOrphanage struct {
	Orphanage      entities.Orphanage
	DistanceMeters float64
}

// MapView is the orphanages map screen. Every focus refetches the whole list.
type MapView struct {
	api integration.OrphanageAPI
	nav *Navigator

	mu         sync.Mutex
	state      entities.LoadState
	orphanages []entities.Orphanage
	err        error
	fetches    int
}

func NewMapView(api integration.OrphanageAPI, nav *Navigator) *MapView {
	return &MapView{api: api, nav: nav}
}

// Focus fetches the list. A failure keeps the previous markers and moves to LoadFailed.
func (v *MapView) Focus(ctx context.Context) error {
	v.mu.Lock()
	v.state = entities.LoadLoading
	v.fetches++
	v.mu.Unlock()

	orphanages, err := v.api.ListOrphanages(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.state = entities.LoadFailed
		v.err = err
		return errors.Wrap(err, "failed to load orphanages")
	}
	v.state = entities.LoadLoaded
	v.err = nil
	v.orphanages = orphanages
	return nil
}

// State returns the current load state and the last fetch error, if any
func (v *MapView) State() (entities.LoadState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state, v.err
}

// FetchCount is the number of list requests issued so far
func (v *MapView) FetchCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fetches
}

// Orphanages returns a copy of the loaded list
func (v *MapView) Orphanages() []entities.Orphanage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]entities.Orphanage(nil), v.orphanages...)
}

// Markers returns one marker per loaded orphanage, in API order
func (v *MapView) Markers() []Marker {
	v.mu.Lock()
	defer v.mu.Unlock()
	markers := make([]Marker, 0, len(v.orphanages))
	for _, o := range v.orphanages {
		markers = append(markers, Marker{ID: o.ID, Name: o.Name, Position: o.Coordinate()})
	}
	return markers
}

// Count is the number shown in the footer
func (v *MapView) Count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.orphanages)
}

// SelectMarker opens the details of the orphanage behind a marker callout
func (v *MapView) SelectMarker(ctx context.Context, id int64) error {
	v.mu.Lock()
	found := false
	for _, o := range v.orphanages {
		if o.ID == id {
			found = true
			break
		}
	}
	v.mu.Unlock()

	if !found {
		return ErrUnknownMarker
	}
	v.nav.Navigate(ctx, entities.ScreenOrphanageDetails, entities.IDParams(id))
	return nil
}

// StartCreation enters the creation flow
func (v *MapView) StartCreation(ctx context.Context) {
	v.nav.Navigate(ctx, entities.ScreenSelectMapPosition, entities.NavigationParams{})
}

// Nearest orders the loaded orphanages by distance from `from` and keeps at most n
func (v *MapView) Nearest(from entities.Coordinate, n int) []NearbyOrphanage {
	v.mu.Lock()
	out := make([]NearbyOrphanage, 0, len(v.orphanages))
	for _, o := range v.orphanages {
		out = append(out, NearbyOrphanage{
			Orphanage:      o,
			DistanceMeters: geo.Distance(from.Point(), o.Coordinate().Point()),
		})
	}
	v.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceMeters < out[j].DistanceMeters
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Region is the initial visible area
func (v *MapView) Region() MapRegion {
	return ListRegion
}

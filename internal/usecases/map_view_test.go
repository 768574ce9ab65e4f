package usecases

import (
	"context"
	"testing"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapViewFetchesOnEveryFocus(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{orphanages: sampleOrphanages()}
	view := NewMapView(api, NewNavigator(entities.ScreenOrphanagesMap))

	require.NoError(t, view.Focus(ctx))
	assert.Equal(t, 1, api.lists())

	api.orphanages = api.orphanages[:2]
	require.NoError(t, view.Focus(ctx))
	assert.Equal(t, 2, api.lists())
	assert.Equal(t, 2, view.FetchCount())
	assert.Equal(t, 2, view.Count())
}

func TestMapViewMarkers(t *testing.T) {
	view := NewMapView(&fakeAPI{orphanages: sampleOrphanages()}, NewNavigator(entities.ScreenOrphanagesMap))
	require.NoError(t, view.Focus(context.Background()))

	markers := view.Markers()
	require.Len(t, markers, 3)
	for i, o := range sampleOrphanages() {
		assert.Equal(t, o.ID, markers[i].ID)
		assert.Equal(t, o.Name, markers[i].Name)
		assert.Equal(t, o.Coordinate(), markers[i].Position)
	}
	assert.Equal(t, "3 orphanages", FormatFooter(view.Count()))
}

func TestMapViewFailureIsExplicit(t *testing.T) {
	api := &fakeAPI{listErr: errAPIDown}
	view := NewMapView(api, NewNavigator(entities.ScreenOrphanagesMap))

	state, _ := view.State()
	assert.Equal(t, entities.LoadIdle, state)

	err := view.Focus(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errAPIDown))

	state, lastErr := view.State()
	assert.Equal(t, entities.LoadFailed, state)
	assert.Equal(t, errAPIDown, lastErr)
	assert.Empty(t, view.Markers())
}

func TestMapViewSelectMarkerNavigates(t *testing.T) {
	ctx := context.Background()
	nav := NewNavigator(entities.ScreenOrphanagesMap)
	view := NewMapView(&fakeAPI{orphanages: sampleOrphanages()}, nav)
	require.NoError(t, view.Focus(ctx))

	assert.ErrorIs(t, view.SelectMarker(ctx, 42), ErrUnknownMarker)

	require.NoError(t, view.SelectMarker(ctx, 2))
	screen, params := nav.Current()
	assert.Equal(t, entities.ScreenOrphanageDetails, screen)
	require.NotNil(t, params.ID)
	assert.Equal(t, int64(2), *params.ID)

	view.StartCreation(ctx)
	screen, _ = nav.Current()
	assert.Equal(t, entities.ScreenSelectMapPosition, screen)
}

func TestMapViewNearest(t *testing.T) {
	view := NewMapView(&fakeAPI{orphanages: sampleOrphanages()}, NewNavigator(entities.ScreenOrphanagesMap))
	require.NoError(t, view.Focus(context.Background()))

	near := view.Nearest(entities.Coordinate{Latitude: -7.19, Longitude: -39.29}, 2)
	require.Len(t, near, 2)
	assert.Equal(t, int64(3), near[0].Orphanage.ID)
	assert.Equal(t, int64(2), near[1].Orphanage.ID)
	assert.Less(t, near[0].DistanceMeters, near[1].DistanceMeters)
}

func TestRegions(t *testing.T) {
	assert.True(t, ListRegion.Contains(ListRegion.Center))
	assert.False(t, ListRegion.Contains(PickerRegion.Center))
	assert.True(t, PickerRegion.Contains(entities.Coordinate{Latitude: -6.521, Longitude: -38.415}))
}

func TestMapViewIsLoadingWhileFetching(t *testing.T) {
	api := newBlockingAPI(sampleOrphanages())
	view := NewMapView(api, NewNavigator(entities.ScreenOrphanagesMap))

	done := make(chan error, 1)
	go func() { done <- view.Focus(context.Background()) }()

	<-api.started
	state, err := view.State()
	assert.Equal(t, entities.LoadLoading, state)
	assert.NoError(t, err)

	close(api.release)
	require.NoError(t, <-done)
	state, _ = view.State()
	assert.Equal(t, entities.LoadLoaded, state)
}

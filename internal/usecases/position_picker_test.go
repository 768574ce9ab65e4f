package usecases

import (
	"context"
	"testing"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionPickerLatestTapWins(t *testing.T) {
	picker := NewPositionPicker(NewNavigator(entities.ScreenOrphanagesMap))

	assert.False(t, picker.CanProceed())

	a := entities.Coordinate{Latitude: -6.52, Longitude: -38.41}
	b := entities.Coordinate{Latitude: -6.53, Longitude: -38.42}
	picker.Tap(a)
	assert.True(t, picker.CanProceed())
	picker.Tap(b)

	got, ok := picker.Selection()
	require.True(t, ok)
	assert.Equal(t, b, got)
}

func TestPositionPickerAcceptsNullIsland(t *testing.T) {
	picker := NewPositionPicker(NewNavigator(entities.ScreenOrphanagesMap))
	picker.Tap(entities.Coordinate{})

	assert.True(t, picker.CanProceed())
}

func TestPositionPickerProceed(t *testing.T) {
	ctx := context.Background()
	nav := NewNavigator(entities.ScreenOrphanagesMap)
	picker := NewPositionPicker(nav)

	assert.ErrorIs(t, picker.Proceed(ctx), ErrNoSelection)
	assert.Equal(t, 1, nav.Depth())

	picker.Tap(entities.Coordinate{Latitude: 3, Longitude: 4})
	require.NoError(t, picker.Proceed(ctx))

	screen, params := nav.Current()
	assert.Equal(t, entities.ScreenOrphanageData, screen)
	require.NotNil(t, params.Position)
	assert.Equal(t, entities.Coordinate{Latitude: 3, Longitude: 4}, *params.Position)
}

package usecases

import (
	"context"
	"testing"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCreationFlow(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{orphanages: sampleOrphanages()}
	s := NewSession(Deps{API: api, Opener: memOpener{}}, 1)
	s.Start(ctx)

	assert.Equal(t, 1, api.lists())
	assert.Nil(t, s.Picker())

	s.Map.StartCreation(ctx)
	require.NotNil(t, s.Picker())
	assert.Equal(t, entities.ScreenSelectMapPosition, s.Screen())

	s.Picker().Tap(casaFelizPosition)
	require.NoError(t, s.Picker().Proceed(ctx))
	require.NotNil(t, s.Form())
	assert.Equal(t, casaFelizPosition, s.Form().Position())

	s.Form().SetName("Casa Feliz")
	_, err := s.Form().Submit(ctx)
	require.NoError(t, err)

	// back on the map: screen state dropped, list fetched again
	assert.Equal(t, entities.ScreenOrphanagesMap, s.Screen())
	assert.Nil(t, s.Form())
	assert.Nil(t, s.Picker())
	assert.Equal(t, 2, api.lists())
}

func TestSessionReenteringFlowStartsClean(t *testing.T) {
	ctx := context.Background()
	s := NewSession(Deps{API: &fakeAPI{}}, 1)
	s.Start(ctx)

	s.Map.StartCreation(ctx)
	s.Picker().Tap(casaFelizPosition)
	require.True(t, s.Nav.Back(ctx))
	assert.Nil(t, s.Picker())

	s.Map.StartCreation(ctx)
	assert.False(t, s.Picker().CanProceed())
}

func TestSessionDetailsAndBack(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{orphanages: sampleOrphanages()}
	s := NewSession(Deps{API: api}, 1)
	s.Start(ctx)

	require.NoError(t, s.Map.SelectMarker(ctx, 2))
	require.NotNil(t, s.Details())
	page, err := s.Details().Page()
	require.NoError(t, err)
	assert.Equal(t, "Lar Esperanca", page.Name)

	s.Nav.Back(ctx)
	assert.Nil(t, s.Details())
	assert.Equal(t, 2, api.lists())
}

func TestSessionDetailsFailureIsObservable(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{orphanages: sampleOrphanages()}
	s := NewSession(Deps{API: api}, 1)
	s.Start(ctx)

	api.getErr = errAPIDown
	require.NoError(t, s.Map.SelectMarker(ctx, 1))

	state, err := s.Details().State()
	assert.Equal(t, entities.LoadFailed, state)
	assert.ErrorIs(t, err, errAPIDown)
	assert.ErrorIs(t, s.LastFocusError(), errAPIDown)
}

package usecases

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"mime/multipart"
	"testing"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var casaFelizPosition = entities.Coordinate{Latitude: -6.52, Longitude: -38.41}

// openForm walks map -> picker -> form so the navigator mirrors the real flow
func openForm(t *testing.T, api *fakeAPI, journal Journal, policy SubmitPolicy) (*DataForm, *Navigator) {
	t.Helper()
	ctx := context.Background()
	nav := NewNavigator(entities.ScreenOrphanagesMap)
	nav.Navigate(ctx, entities.ScreenSelectMapPosition, entities.NavigationParams{})
	nav.Navigate(ctx, entities.ScreenOrphanageData, entities.PositionParams(casaFelizPosition))

	_, params := nav.Current()
	form, err := NewDataForm(Deps{API: api, Opener: memOpener{}, Journal: journal, Policy: policy}, nav, 42, params)
	require.NoError(t, err)
	return form, nav
}

type wirePart struct {
	name, file, body string
}

func decodePayload(t *testing.T, p *integration.CreatePayload) (fields []wirePart, files []wirePart) {
	t.Helper()
	_, params, err := mime.ParseMediaType(p.ContentType)
	require.NoError(t, err)
	r := multipart.NewReader(bytes.NewReader(p.Body.Bytes()), params["boundary"])
	for {
		part, err := r.NextPart()
		if err == io.EOF {
			return fields, files
		}
		require.NoError(t, err)
		body, _ := io.ReadAll(part)
		wp := wirePart{name: part.FormName(), file: part.FileName(), body: string(body)}
		if wp.file == "" {
			fields = append(fields, wp)
		} else {
			files = append(files, wp)
		}
	}
}

func TestNewDataFormRequiresPosition(t *testing.T) {
	_, err := NewDataForm(Deps{}, NewNavigator(entities.ScreenOrphanagesMap), 0, entities.NavigationParams{})
	assert.ErrorIs(t, err, ErrMissingPosition)
}

func TestDataFormDefaults(t *testing.T) {
	form, _ := openForm(t, &fakeAPI{}, nil, "")
	d := form.Draft()
	assert.True(t, d.OpenOnWeekends)
	assert.Empty(t, d.ImageURIs)
	assert.Equal(t, casaFelizPosition, form.Position())
}

func TestAddPhotoCountsOnlySuccessfulPicks(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		form, _ := openForm(t, &fakeAPI{}, nil, "")
		var want []string
		var script []PickResult
		n := rng.Intn(12)
		for i := 0; i < n; i++ {
			if rng.Intn(2) == 0 {
				uri := fmt.Sprintf("file:///photo-%d-%d.jpg", round, i)
				want = append(want, uri)
				script = append(script, Picked(uri))
			} else {
				script = append(script, Cancelled())
			}
		}

		picker := &scriptedPicker{results: script}
		for range script {
			_, err := form.AddPhoto(context.Background(), picker)
			require.NoError(t, err)
		}
		assert.Equal(t, want, form.Draft().ImageURIs, "round %d", round)
	}
}

func TestAddPhotoPermissionDenied(t *testing.T) {
	form, _ := openForm(t, &fakeAPI{}, nil, "")
	picker := &scriptedPicker{results: []PickResult{Picked("a"), PermissionDenied(), Picked("b")}}

	added, err := form.AddPhoto(context.Background(), picker)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = form.AddPhoto(context.Background(), picker)
	assert.ErrorIs(t, err, ErrPhotoPermissionDenied)
	assert.False(t, added)

	_, err = form.AddPhoto(context.Background(), picker)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, form.Draft().ImageURIs)
}

func TestSubmitWithoutImages(t *testing.T) {
	api := &fakeAPI{}
	form, nav := openForm(t, api, nil, "")
	form.SetName("Casa Feliz")
	form.SetOpenOnWeekends(false)

	res, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.OutcomeCreated, res.Outcome)
	assert.True(t, res.Navigated)

	require.Len(t, api.payloads, 1)
	fields, files := decodePayload(t, api.payloads[0])
	assert.Empty(t, files)
	require.Len(t, fields, len(integration.CreateFieldNames))
	values := map[string]string{}
	for _, f := range fields {
		values[f.name] = f.body
	}
	assert.Equal(t, "Casa Feliz", values["name"])
	assert.Equal(t, "-6.52", values["latitude"])
	assert.Equal(t, "-38.41", values["longitude"])
	assert.Equal(t, "false", values["open_on_weekends"])

	screen, _ := nav.Current()
	assert.Equal(t, entities.ScreenOrphanagesMap, screen)
}

func TestSubmitWithThreeImages(t *testing.T) {
	api := &fakeAPI{}
	form, _ := openForm(t, api, nil, "")
	picker := &scriptedPicker{results: []PickResult{Picked("first"), Picked("second"), Picked("third")}}
	for i := 0; i < 3; i++ {
		_, err := form.AddPhoto(context.Background(), picker)
		require.NoError(t, err)
	}

	_, err := form.Submit(context.Background())
	require.NoError(t, err)

	_, files := decodePayload(t, api.payloads[0])
	require.Len(t, files, 3)
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, "images", files[i].name)
		assert.Equal(t, fmt.Sprintf("image_%d.jpg", i), files[i].file)
		assert.Equal(t, want, files[i].body)
	}
}

func TestSubmitFailurePolicies(t *testing.T) {
	cases := []struct {
		policy        SubmitPolicy
		wantNavigated bool
		wantScreen    entities.Screen
	}{
		{SubmitOptimistic, true, entities.ScreenOrphanagesMap},
		{SubmitStrict, false, entities.ScreenOrphanageData},
	}
	for _, tc := range cases {
		t.Run(string(tc.policy), func(t *testing.T) {
			journal := &memJournal{}
			form, nav := openForm(t, &fakeAPI{createErr: errAPIDown}, journal, tc.policy)
			form.SetName("Casa Feliz")

			res, err := form.Submit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, entities.OutcomeFailed, res.Outcome)
			assert.ErrorIs(t, res.Err, errAPIDown)
			assert.Equal(t, tc.wantNavigated, res.Navigated)

			screen, _ := nav.Current()
			assert.Equal(t, tc.wantScreen, screen)

			require.Len(t, journal.records, 1)
			assert.Equal(t, entities.OutcomeFailed, journal.records[0].Outcome)
			assert.Equal(t, int64(42), journal.records[0].ChatID)
			assert.Equal(t, "api down", journal.records[0].Error)
		})
	}
}

func TestStrictFailureKeepsDraft(t *testing.T) {
	api := &fakeAPI{createErr: errAPIDown}
	form, _ := openForm(t, api, nil, SubmitStrict)
	form.SetName("Casa Feliz")

	_, err := form.Submit(context.Background())
	require.NoError(t, err)

	api.createErr = nil
	res, err := form.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entities.OutcomeCreated, res.Outcome)
	assert.Len(t, api.payloads, 2)
	assert.Equal(t, "Casa Feliz", res.Record.Name)
}

func TestDiscardReturnsToMap(t *testing.T) {
	form, nav := openForm(t, &fakeAPI{}, nil, "")
	form.Discard(context.Background())

	assert.Equal(t, 1, nav.Depth())
}

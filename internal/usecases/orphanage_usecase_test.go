package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/integration/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	resp  *openai.AgentResponse
	names []string
}

func (f *fakeAgent) InterpretUserQuery(_ context.Context, _ string, known []string) (*openai.AgentResponse, error) {
	f.names = known
	return f.resp, nil
}

type memStore struct {
	memJournal
	prunedBefore time.Time
}

func (m *memStore) ListSubmissions(chatID int64, limit int) ([]entities.SubmissionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.SubmissionRecord
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		if m.records[i].ChatID == chatID {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

func (m *memStore) PruneSubmissions(before time.Time) (int64, error) {
	m.prunedBefore = before
	return 0, nil
}

func TestUseCaseSessionsArePerChat(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{orphanages: sampleOrphanages()}
	uc := NewOrphanageUseCase(Deps{API: api}, nil, nil)

	a := uc.Session(ctx, 1)
	assert.Same(t, a, uc.Session(ctx, 1))
	assert.NotSame(t, a, uc.Session(ctx, 2))
	assert.Equal(t, 2, api.lists())

	uc.ResetSession(1)
	assert.NotSame(t, a, uc.Session(ctx, 1))
}

func TestUseCaseOpenSessionReportsCreation(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{orphanages: sampleOrphanages()}
	uc := NewOrphanageUseCase(Deps{API: api}, nil, nil)

	s, created := uc.OpenSession(ctx, 1)
	assert.True(t, created)
	assert.Equal(t, entities.ScreenOrphanagesMap, s.Screen())
	assert.Equal(t, 1, api.lists())

	again, created := uc.OpenSession(ctx, 1)
	assert.False(t, created)
	assert.Same(t, s, again)
	assert.Equal(t, 1, api.lists())
}

func TestUseCaseEvictsIdleSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.April, 18, 8, 0, 0, 0, time.UTC)
	uc := NewOrphanageUseCase(Deps{API: &fakeAPI{orphanages: sampleOrphanages()}}, nil, nil)
	uc.now = func() time.Time { return now }
	uc.SetSessionTTL(time.Hour)

	idle := uc.Session(ctx, 1)
	now = now.Add(50 * time.Minute)
	active := uc.Session(ctx, 2)

	assert.Equal(t, 1, uc.EvictIdleSessions(now.Add(20*time.Minute)))
	assert.Same(t, active, uc.Session(ctx, 2))
	assert.NotSame(t, idle, uc.Session(ctx, 1))
}

func TestUseCaseSweepsIdleSessionsWhileServing(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.April, 18, 8, 0, 0, 0, time.UTC)
	uc := NewOrphanageUseCase(Deps{API: &fakeAPI{}}, nil, nil)
	uc.now = func() time.Time { return now }
	uc.SetSessionTTL(time.Minute)

	uc.Session(ctx, 1)
	now = now.Add(time.Hour)
	for i := 0; i < 300; i++ {
		uc.Session(ctx, 2)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	assert.NotContains(t, uc.sessions, int64(1))
	assert.Contains(t, uc.sessions, int64(2))
}

func TestUseCaseZeroTTLKeepsSessions(t *testing.T) {
	uc := NewOrphanageUseCase(Deps{API: &fakeAPI{}}, nil, nil)
	uc.SetSessionTTL(0)
	uc.Session(context.Background(), 1)

	assert.Equal(t, 0, uc.EvictIdleSessions(time.Now().Add(1000*time.Hour)))
}

func TestUseCaseJournalsThroughStore(t *testing.T) {
	ctx := context.Background()
	store := &memStore{}
	uc := NewOrphanageUseCase(Deps{API: &fakeAPI{}}, store, nil)

	s := uc.Session(ctx, 9)
	s.Map.StartCreation(ctx)
	s.Picker().Tap(casaFelizPosition)
	require.NoError(t, s.Picker().Proceed(ctx))
	s.Form().SetName("Casa Feliz")
	_, err := s.Form().Submit(ctx)
	require.NoError(t, err)

	history, err := uc.History(9, 5)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Casa Feliz", history[0].Name)
	assert.Contains(t, FormatHistory(history), "✅ Casa Feliz")

	require.NoError(t, uc.PruneJournal(24*time.Hour))
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), store.prunedBefore, time.Minute)
}

func TestHandleNaturalLanguageQuery(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{orphanages: sampleOrphanages()}

	agent := &fakeAgent{resp: &openai.AgentResponse{CommandName: openai.CommandShowOrphanage, OrphanageName: "lar esperanca", UserMessage: "Aqui está"}}
	uc := NewOrphanageUseCase(Deps{API: api}, nil, agent)
	assert.True(t, uc.AssistantEnabled())

	intent, err := uc.HandleNaturalLanguageQuery(ctx, "me fala do lar esperanca")
	require.NoError(t, err)
	assert.Equal(t, openai.CommandShowOrphanage, intent.Command)
	assert.Equal(t, int64(2), intent.OrphanageID)
	assert.Equal(t, []string{"Casa Feliz", "Lar Esperanca", "Abrigo Sol"}, agent.names)

	agent.resp = &openai.AgentResponse{CommandName: openai.CommandShowOrphanage, OrphanageName: "Unknown"}
	intent, err = uc.HandleNaturalLanguageQuery(ctx, "?")
	require.NoError(t, err)
	assert.Equal(t, openai.CommandGeneralQuery, intent.Command)

	agent.resp = &openai.AgentResponse{CommandName: "Dance"}
	intent, err = uc.HandleNaturalLanguageQuery(ctx, "?")
	require.NoError(t, err)
	assert.Equal(t, openai.CommandGeneralQuery, intent.Command)
}

func TestHandleNaturalLanguageQueryDisabled(t *testing.T) {
	uc := NewOrphanageUseCase(Deps{API: &fakeAPI{}}, nil, nil)
	assert.False(t, uc.AssistantEnabled())

	_, err := uc.HandleNaturalLanguageQuery(context.Background(), "hi")
	assert.ErrorIs(t, err, openai.ErrNotConfigured)
}

func TestFormatDraft(t *testing.T) {
	d := entities.NewOrphanageDraft()
	d.Name = "Casa Feliz"
	d.ImageURIs = []string{"a", "b"}

	text := FormatDraft(casaFelizPosition, d)
	assert.Contains(t, text, "-6.52, -38.41")
	assert.Contains(t, text, "Open on weekends: yes")
	assert.Contains(t, text, "Photos: 2")
}

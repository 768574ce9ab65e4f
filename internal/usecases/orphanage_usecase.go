// Package usecases contains the application's business logic
package usecases

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/integration/openai"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SubmissionStore is the part of the repository the use case needs
type SubmissionStore interface {
	Journal
	ListSubmissions(chatID int64, limit int) ([]entities.SubmissionRecord, error)
	PruneSubmissions(before time.Time) (int64, error)
}

// Intent is what a free-text message asked for
type Intent struct {
	Command     string
	OrphanageID int64
	Message     string
}

// OrphanageUseCase owns the per-chat sessions and the supporting features around them
type OrphanageUseCase struct {
	deps          Deps
	store         SubmissionStore
	openAIService openai.OpenAIService
	log           *zap.SugaredLogger

	mu         sync.Mutex
	sessions   map[int64]*sessionEntry
	sessionTTL time.Duration
	hits       uint64
	now        func() time.Time
}

type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

// DefaultSessionTTL is how long an untouched chat keeps its session
const DefaultSessionTTL = 24 * time.Hour

// NewOrphanageUseCase creates the use case. store and openAIService may be nil.
func NewOrphanageUseCase(deps Deps, store SubmissionStore, openAIService openai.OpenAIService) *OrphanageUseCase {
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	if store != nil && deps.Journal == nil {
		deps.Journal = store
	}
	return &OrphanageUseCase{
		deps:          deps,
		store:         store,
		openAIService: openAIService,
		log:           deps.Log,
		sessions:      make(map[int64]*sessionEntry),
		sessionTTL:    DefaultSessionTTL,
		now:           time.Now,
	}
}

// Session returns the chat's session, creating (and starting) it on first use
func (uc *OrphanageUseCase) Session(ctx context.Context, chatID int64) *Session {
	s, _ := uc.OpenSession(ctx, chatID)
	return s
}

// OpenSession is Session that also reports whether the session was just created,
// in which case its map has already been loaded.
func (uc *OrphanageUseCase) OpenSession(ctx context.Context, chatID int64) (*Session, bool) {
	now := uc.now()

	uc.mu.Lock()
	e, ok := uc.sessions[chatID]
	if !ok {
		e = &sessionEntry{session: NewSession(uc.deps, chatID)}
		uc.sessions[chatID] = e
	}
	e.lastSeen = now
	uc.hits++
	sweep := uc.hits%256 == 0
	uc.mu.Unlock()

	if sweep {
		uc.EvictIdleSessions(now)
	}
	if !ok {
		uc.log.Infof("Starting session for chat %d", chatID)
		e.session.Start(ctx)
	}
	return e.session, !ok
}

// SetSessionTTL changes the idle time after which a chat's session is dropped.
// A non-positive ttl keeps sessions forever.
func (uc *OrphanageUseCase) SetSessionTTL(ttl time.Duration) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.sessionTTL = ttl
}

// EvictIdleSessions drops sessions not used since now minus the session TTL and
// returns how many were dropped
func (uc *OrphanageUseCase) EvictIdleSessions(now time.Time) int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.sessionTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-uc.sessionTTL)
	n := 0
	for id, e := range uc.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(uc.sessions, id)
			n++
		}
	}
	if n > 0 {
		uc.log.Debugf("Evicted %d idle sessions", n)
	}
	return n
}

// ResetSession drops the chat's session; the next call to Session starts over on the map
func (uc *OrphanageUseCase) ResetSession(chatID int64) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.sessions, chatID)
}

// History returns the chat's latest journaled submissions
func (uc *OrphanageUseCase) History(chatID int64, limit int) ([]entities.SubmissionRecord, error) {
	if uc.store == nil {
		return nil, nil
	}
	return uc.store.ListSubmissions(chatID, limit)
}

// PruneJournal removes journal entries older than retention
func (uc *OrphanageUseCase) PruneJournal(retention time.Duration) error {
	if uc.store == nil || retention <= 0 {
		return nil
	}
	n, err := uc.store.PruneSubmissions(time.Now().Add(-retention))
	if err != nil {
		return errors.Wrap(err, "failed to prune submission journal")
	}
	uc.log.Infof("Pruned %d submission journal entries", n)
	return nil
}

// AssistantEnabled reports whether free-text messages can be interpreted
func (uc *OrphanageUseCase) AssistantEnabled() bool {
	return uc.openAIService != nil
}

// HandleNaturalLanguageQuery interprets a user's free-text message with the AI agent.
// The orphanage list is fetched fresh so names map onto current ids.
func (uc *OrphanageUseCase) HandleNaturalLanguageQuery(ctx context.Context, query string) (*Intent, error) {
	if uc.openAIService == nil {
		return nil, openai.ErrNotConfigured
	}
	uc.log.Infof("Interpreting natural language query: %s", query)

	orphanages, err := uc.deps.API.ListOrphanages(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch orphanages for the assistant")
	}
	names := make([]string, 0, len(orphanages))
	for _, o := range orphanages {
		names = append(names, o.Name)
	}

	agentResp, err := uc.openAIService.InterpretUserQuery(ctx, query, names)
	if err != nil {
		return nil, errors.Wrap(err, "failed to interpret query")
	}
	uc.log.Infof("Agent response: Command='%s', Orphanage='%s'", agentResp.CommandName, agentResp.OrphanageName)

	intent := &Intent{Command: agentResp.CommandName, Message: agentResp.UserMessage}
	switch agentResp.CommandName {
	case openai.CommandListOrphanages, openai.CommandCreateOrphanage:
	case openai.CommandShowOrphanage:
		for _, o := range orphanages {
			if strings.EqualFold(strings.TrimSpace(o.Name), strings.TrimSpace(agentResp.OrphanageName)) {
				intent.OrphanageID = o.ID
				break
			}
		}
		if intent.OrphanageID == 0 {
			intent.Command = openai.CommandGeneralQuery
		}
	default:
		intent.Command = openai.CommandGeneralQuery
	}
	return intent, nil
}

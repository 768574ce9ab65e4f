package usecases

import (
	"context"
	"sync"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/integration"
	"github.com/abelzeko/orphanage-bot/internal/metrics"
	"go.uber.org/zap"
)

// Deps are the collaborators shared by every session
type Deps struct {
	API     integration.OrphanageAPI
	Opener  integration.PhotoOpener
	Journal Journal
	Policy  SubmitPolicy
	Metrics *metrics.Metrics
	Log     *zap.SugaredLogger
}

// Session is one user's walk through the screens. Screen-scoped state is created
// when its screen is entered and dropped once the screen leaves the stack.
type Session struct {
	ChatID int64
	Nav    *Navigator
	Map    *MapView

	deps Deps
	log  *zap.SugaredLogger

	mu      sync.Mutex
	details *DetailsView
	picker  *PositionPicker
	form    *DataForm
	lastErr error
}

// NewSession creates a session positioned on the orphanages map. Call Start to focus it.
func NewSession(deps Deps, chatID int64) *Session {
	log := deps.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	nav := NewNavigator(entities.ScreenOrphanagesMap)
	s := &Session{
		ChatID: chatID,
		Nav:    nav,
		Map:    NewMapView(deps.API, nav),
		deps:   deps,
		log:    log,
	}
	nav.OnFocus(s.handleFocus)
	return s
}

// Start focuses the root screen, which loads the map
func (s *Session) Start(ctx context.Context) {
	s.Nav.Start(ctx)
}

// Screen is the focused screen
func (s *Session) Screen() entities.Screen {
	screen, _ := s.Nav.Current()
	return screen
}

// Details is the detail view, nil when the screen is not on the stack
func (s *Session) Details() *DetailsView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.details
}

// Picker is the position picker, nil when the screen is not on the stack
func (s *Session) Picker() *PositionPicker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.picker
}

// Form is the data form, nil when the screen is not on the stack
func (s *Session) Form() *DataForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// LastFocusError is the error raised by the latest focus handler, if any
func (s *Session) LastFocusError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) handleFocus(ctx context.Context, ev FocusEvent) {
	s.log.Debugf("Chat %d focused %s (fresh=%t)", s.ChatID, ev.Screen, ev.Fresh)

	var err error
	switch ev.Screen {
	case entities.ScreenOrphanagesMap:
		err = s.Map.Focus(ctx)

	case entities.ScreenOrphanageDetails:
		if ev.Fresh && ev.Params.ID != nil {
			details := NewDetailsView(s.deps.API)
			s.mu.Lock()
			s.details = details
			s.mu.Unlock()
			err = details.Mount(ctx, *ev.Params.ID)
		}

	case entities.ScreenSelectMapPosition:
		if ev.Fresh {
			s.mu.Lock()
			s.picker = NewPositionPicker(s.Nav)
			s.mu.Unlock()
		}

	case entities.ScreenOrphanageData:
		if ev.Fresh {
			var form *DataForm
			form, err = NewDataForm(s.deps, s.Nav, s.ChatID, ev.Params)
			s.mu.Lock()
			s.form = form
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	s.lastErr = err
	if !s.Nav.Contains(entities.ScreenOrphanageDetails) {
		s.details = nil
	}
	if !s.Nav.Contains(entities.ScreenSelectMapPosition) {
		s.picker = nil
	}
	if !s.Nav.Contains(entities.ScreenOrphanageData) {
		s.form = nil
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warnf("Error focusing %s for chat %d: %v", ev.Screen, s.ChatID, err)
	}
}

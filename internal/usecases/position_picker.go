package usecases

import (
	"context"
	"sync"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/pkg/errors"
)

// ErrNoSelection is returned by Proceed before the first tap
var ErrNoSelection = errors.New("no position selected")

// PositionPicker is the first step of the creation flow.
// Selection is an explicit optional, so a tap at (0,0) still counts.
type PositionPicker struct {
	nav *Navigator

	mu        sync.Mutex
	selection *entities.Coordinate
}

func NewPositionPicker(nav *Navigator) *PositionPicker {
	return &PositionPicker{nav: nav}
}

// Tap replaces the selection with c; only the latest tap counts
func (p *PositionPicker) Tap(c entities.Coordinate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selection = &c
}

// Selection returns the selected coordinate and whether there is one
func (p *PositionPicker) Selection() (entities.Coordinate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selection == nil {
		return entities.Coordinate{}, false
	}
	return *p.selection, true
}

// CanProceed reports whether the proceed control is shown
func (p *PositionPicker) CanProceed() bool {
	_, ok := p.Selection()
	return ok
}

// Proceed moves to the data form carrying the selected position
func (p *PositionPicker) Proceed(ctx context.Context) error {
	c, ok := p.Selection()
	if !ok {
		return ErrNoSelection
	}
	p.nav.Navigate(ctx, entities.ScreenOrphanageData, entities.PositionParams(c))
	return nil
}

// Region is where the picker map opens
func (p *PositionPicker) Region() MapRegion {
	return PickerRegion
}

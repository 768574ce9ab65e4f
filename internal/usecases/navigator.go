package usecases

import (
	"context"
	"sync"

	"github.com/abelzeko/orphanage-bot/internal/entities"
)

// FocusEvent fires each time a screen becomes the top of the stack.
// Fresh is set when the screen was just pushed or received new params.
type FocusEvent struct {
	Screen entities.Screen
	Params entities.NavigationParams
	Fresh  bool
}

// FocusListener reacts to focus events. It runs synchronously on the navigating goroutine.
type FocusListener func(ctx context.Context, ev FocusEvent)

type route struct {
	screen entities.Screen
	params entities.NavigationParams
}

// Navigator is a linear screen stack. Params are copied in and out,
// so the only state screens share is what they explicitly pass.
type Navigator struct {
	mu        sync.Mutex
	stack     []route
	listeners []FocusListener
}

// NewNavigator creates a stack whose bottom is root
func NewNavigator(root entities.Screen) *Navigator {
	return &Navigator{stack: []route{{screen: root}}}
}

// OnFocus registers a listener
func (n *Navigator) OnFocus(l FocusListener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, l)
}

// Start emits the first focus of the root screen
func (n *Navigator) Start(ctx context.Context) {
	n.mu.Lock()
	top := n.stack[len(n.stack)-1]
	n.mu.Unlock()
	n.emit(ctx, FocusEvent{Screen: top.screen, Params: top.params.Clone(), Fresh: true})
}

// Navigate focuses screen. When the screen is already on the stack everything above it
// is popped and its params are replaced; otherwise it is pushed.
func (n *Navigator) Navigate(ctx context.Context, screen entities.Screen, params entities.NavigationParams) {
	params = params.Clone()

	n.mu.Lock()
	fresh := true
	idx := n.indexOf(screen)
	if idx >= 0 {
		n.stack = n.stack[:idx+1]
		// Returning to a screen without params keeps the ones it was opened with
		if params.Position == nil && params.ID == nil {
			params = n.stack[idx].params
			fresh = false
		}
		n.stack[idx].params = params
	} else {
		n.stack = append(n.stack, route{screen: screen, params: params})
	}
	n.mu.Unlock()

	n.emit(ctx, FocusEvent{Screen: screen, Params: params.Clone(), Fresh: fresh})
}

// Back pops the top screen. It reports false when already at the root.
func (n *Navigator) Back(ctx context.Context) bool {
	n.mu.Lock()
	if len(n.stack) == 1 {
		n.mu.Unlock()
		return false
	}
	n.stack = n.stack[:len(n.stack)-1]
	top := n.stack[len(n.stack)-1]
	n.mu.Unlock()

	n.emit(ctx, FocusEvent{Screen: top.screen, Params: top.params.Clone()})
	return true
}

// Current returns the focused screen and a copy of its params
func (n *Navigator) Current() (entities.Screen, entities.NavigationParams) {
	n.mu.Lock()
	defer n.mu.Unlock()
	top := n.stack[len(n.stack)-1]
	return top.screen, top.params.Clone()
}

// Contains reports whether screen is anywhere on the stack
func (n *Navigator) Contains(screen entities.Screen) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.indexOf(screen) >= 0
}

// Depth is the number of stacked screens
func (n *Navigator) Depth() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.stack)
}

func (n *Navigator) indexOf(screen entities.Screen) int {
	for i, r := range n.stack {
		if r.screen == screen {
			return i
		}
	}
	return -1
}

func (n *Navigator) emit(ctx context.Context, ev FocusEvent) {
	n.mu.Lock()
	listeners := append([]FocusListener(nil), n.listeners...)
	n.mu.Unlock()

	for _, l := range listeners {
		l(ctx, ev)
	}
}

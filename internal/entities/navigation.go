package entities

// Screen identifies one step of the navigation stack
type Screen string

const (
	ScreenOrphanagesMap     Screen = "OrphanagesMap"
	ScreenOrphanageDetails  Screen = "OrphanageDetails"
	ScreenSelectMapPosition Screen = "SelectMapPosition"
	ScreenOrphanageData     Screen = "OrphanageData"
)

// NavigationParams is the payload attached to a single screen transition.
// At most one of the fields is set.
type NavigationParams struct {
	Position *Coordinate
	ID       *int64
}

// PositionParams builds the picker -> form payload
func PositionParams(c Coordinate) NavigationParams {
	return NavigationParams{Position: &c}
}

// IDParams builds the map -> details payload
func IDParams(id int64) NavigationParams {
	return NavigationParams{ID: &id}
}

// Clone returns a deep copy so screens never share a pointer
func (p NavigationParams) Clone() NavigationParams {
	var out NavigationParams
	if p.Position != nil {
		pos := *p.Position
		out.Position = &pos
	}
	if p.ID != nil {
		id := *p.ID
		out.ID = &id
	}
	return out
}

// LoadState tracks a screen's remote fetch
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadLoading
	LoadLoaded
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadLoading:
		return "loading"
	case LoadLoaded:
		return "loaded"
	case LoadFailed:
		return "failed"
	default:
		return "idle"
	}
}

// WeekendPanel is the second half of the visiting-hours summary
type WeekendPanel int

const (
	WeekendsClosed WeekendPanel = iota
	WeekendsOpen
)

// WeekendPanelFor maps the flag onto its panel; there is no third state
func WeekendPanelFor(openOnWeekends bool) WeekendPanel {
	if openOnWeekends {
		return WeekendsOpen
	}
	return WeekendsClosed
}

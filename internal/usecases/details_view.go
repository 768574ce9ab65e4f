package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/integration"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"
)

// ErrNotLoaded is returned when the detail page is read before its fetch succeeded
var ErrNotLoaded = errors.New("orphanage not loaded")

// DetailsPage is everything the detail screen renders
type DetailsPage struct {
	ID           int64
	Name         string
	About        string
	Instructions string
	Gallery      []string
	Position     entities.Coordinate
	WeekdayHours string
	Weekends     entities.WeekendPanel
	RouteURL     string
}

// DetailsView is the orphanage detail screen
type DetailsView struct {
	api integration.OrphanageAPI

	mu        sync.Mutex
	id        int64
	state     entities.LoadState
	orphanage *entities.Orphanage
	err       error
}

func NewDetailsView(api integration.OrphanageAPI) *DetailsView {
	return &DetailsView{api: api}
}

// Mount fetches the orphanage with the given id
func (v *DetailsView) Mount(ctx context.Context, id int64) error {
	v.mu.Lock()
	v.id = id
	v.state = entities.LoadLoading
	v.orphanage = nil
	v.err = nil
	v.mu.Unlock()

	o, err := v.api.GetOrphanage(ctx, id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.id != id {
		// remounted with another id while this fetch was in flight
		return nil
	}
	if err != nil {
		v.state = entities.LoadFailed
		v.err = err
		return errors.Wrapf(err, "failed to load orphanage %d", id)
	}
	v.state = entities.LoadLoaded
	v.orphanage = o
	return nil
}

// State returns the load state and the fetch error, if any
func (v *DetailsView) State() (entities.LoadState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state, v.err
}

// ID is the orphanage the view was mounted with
func (v *DetailsView) ID() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.id
}

// Page builds the rendered page; ErrNotLoaded until the fetch succeeded
func (v *DetailsView) Page() (*DetailsPage, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != entities.LoadLoaded || v.orphanage == nil {
		return nil, ErrNotLoaded
	}
	o := v.orphanage

	gallery := make([]string, 0, len(o.Images))
	for _, img := range o.Images {
		gallery = append(gallery, img.URL)
	}

	return &DetailsPage{
		ID:           o.ID,
		Name:         o.Name,
		About:        integration.PlainText(o.About),
		Instructions: integration.PlainText(o.Instructions),
		Gallery:      gallery,
		Position:     o.Coordinate(),
		WeekdayHours: o.OpeningHours,
		Weekends:     entities.WeekendPanelFor(o.OpenOnWeekends),
		RouteURL:     RouteURL(o.Coordinate()),
	}, nil
}

// RouteQR renders the route link of the loaded orphanage as a PNG QR code
func (v *DetailsView) RouteQR(size int) ([]byte, error) {
	page, err := v.Page()
	if err != nil {
		return nil, err
	}
	return RouteQR(page.RouteURL, size)
}

// RouteURL is the external maps link with c as destination
func RouteURL(c entities.Coordinate) string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%s,%s",
		integration.FormatCoordinate(c.Latitude), integration.FormatCoordinate(c.Longitude))
}

// RouteQR encodes link as a PNG QR code of size x size pixels
func RouteQR(link string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate route QR code")
	}
	return png, nil
}

package usecases

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/integration"
	"github.com/pkg/errors"
)

var errAPIDown = errors.New("api down")

// fakeAPI is an in-memory OrphanageAPI that records what it was asked
type fakeAPI struct {
	mu         sync.Mutex
	orphanages []entities.Orphanage
	listErr    error
	getErr     error
	createErr  error
	listCalls  int
	getCalls   int
	payloads   []*integration.CreatePayload
}

func (f *fakeAPI) ListOrphanages(context.Context) ([]entities.Orphanage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]entities.Orphanage(nil), f.orphanages...), nil
}

func (f *fakeAPI) GetOrphanage(_ context.Context, id int64) (*entities.Orphanage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, o := range f.orphanages {
		if o.ID == id {
			o := o
			return &o, nil
		}
	}
	return nil, &integration.StatusError{Op: "get", StatusCode: 404, Status: "404 Not Found"}
}

func (f *fakeAPI) CreateOrphanage(_ context.Context, p *integration.CreatePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.createErr
}

func (f *fakeAPI) lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// scriptedPicker answers picks from a fixed script
type scriptedPicker struct {
	results []PickResult
}

func (p *scriptedPicker) Pick(context.Context) (PickResult, error) {
	if len(p.results) == 0 {
		return Cancelled(), nil
	}
	r := p.results[0]
	p.results = p.results[1:]
	return r, nil
}

// memOpener serves photo bytes equal to the uri itself
type memOpener struct{}

func (memOpener) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(uri)), nil
}

// memJournal collects journaled submissions
type memJournal struct {
	mu      sync.Mutex
	records []entities.SubmissionRecord
}

func (j *memJournal) SaveSubmission(rec *entities.SubmissionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec.ID = int64(len(j.records) + 1)
	j.records = append(j.records, *rec)
	return nil
}

func sampleOrphanages() []entities.Orphanage {
	return []entities.Orphanage{
		{ID: 1, Name: "Casa Feliz", About: "<p>Lar para 20 criancas</p>", Latitude: -6.52, Longitude: -38.41,
			Instructions: "Traga brinquedos", OpeningHours: "8h as 18h", OpenOnWeekends: true,
			Images: []entities.Image{{ID: 1, URL: "http://img/1.jpg"}, {ID: 2, URL: "http://img/2.jpg"}}},
		{ID: 2, Name: "Lar Esperanca", Latitude: -6.93, Longitude: -38.97, OpeningHours: "9h as 17h"},
		{ID: 3, Name: "Abrigo Sol", Latitude: -7.2, Longitude: -39.3},
	}
}

// blockingAPI holds every list/get call until release is closed
type blockingAPI struct {
	*fakeAPI
	started chan struct{}
	release chan struct{}
}

func newBlockingAPI(orphanages []entities.Orphanage) *blockingAPI {
	return &blockingAPI{
		fakeAPI: &fakeAPI{orphanages: orphanages},
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (b *blockingAPI) ListOrphanages(ctx context.Context) ([]entities.Orphanage, error) {
	b.started <- struct{}{}
	<-b.release
	return b.fakeAPI.ListOrphanages(ctx)
}

func (b *blockingAPI) GetOrphanage(ctx context.Context, id int64) (*entities.Orphanage, error) {
	b.started <- struct{}{}
	<-b.release
	return b.fakeAPI.GetOrphanage(ctx, id)
}

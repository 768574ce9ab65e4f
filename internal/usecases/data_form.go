package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/abelzeko/orphanage-bot/internal/entities"
	"github.com/abelzeko/orphanage-bot/internal/integration"
	"github.com/abelzeko/orphanage-bot/internal/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrMissingPosition is returned when the form is opened without a position param
	ErrMissingPosition = errors.New("orphanage form opened without a position")
	// ErrPhotoPermissionDenied is the alert shown when photo access is refused
	ErrPhotoPermissionDenied = errors.New("photo access denied")
	// ErrSubmitInProgress guards against a second tap while the request is in flight
	ErrSubmitInProgress = errors.New("submission already in progress")
)

// SubmitPolicy decides whether a failed submission still leaves the form
type SubmitPolicy string

const (
	// SubmitOptimistic navigates back to the map whatever the API answered
	SubmitOptimistic SubmitPolicy = "optimistic"
	// SubmitStrict stays on the form, draft intact, when the API call fails
	SubmitStrict SubmitPolicy = "strict"
)

// PickStatus is how a photo picker invocation ended
type PickStatus int

const (
	PickCancelled PickStatus = iota
	PickPicked
	PickPermissionDenied
)

// PickResult is the answer of one photo picker invocation
type PickResult struct {
	Status PickStatus
	URI    string
}

func Picked(uri string) PickResult { return PickResult{Status: PickPicked, URI: uri} }
func Cancelled() PickResult        { return PickResult{Status: PickCancelled} }
func PermissionDenied() PickResult { return PickResult{Status: PickPermissionDenied} }

// ImagePicker asks the user for one photo
type ImagePicker interface {
	Pick(ctx context.Context) (PickResult, error)
}

// Journal stores submission outcomes
type Journal interface {
	SaveSubmission(rec *entities.SubmissionRecord) error
}

// SubmitResult is the explicit outcome of Submit
type SubmitResult struct {
	Outcome   entities.SubmissionOutcome
	Err       error
	Navigated bool
	Record    *entities.SubmissionRecord
}

// DataForm is the second step of the creation flow. It owns the draft until the
// screen is left, by submission or cancellation.
type DataForm struct {
	api     integration.OrphanageAPI
	nav     *Navigator
	opener  integration.PhotoOpener
	journal Journal
	policy  SubmitPolicy
	chatID  int64
	metrics *metrics.Metrics
	log     *zap.SugaredLogger

	position entities.Coordinate

	mu         sync.Mutex
	draft      entities.OrphanageDraft
	submitting bool
}

// NewDataForm opens the form with the params handed over by the picker
func NewDataForm(deps Deps, nav *Navigator, chatID int64, params entities.NavigationParams) (*DataForm, error) {
	if params.Position == nil {
		return nil, ErrMissingPosition
	}
	policy := deps.Policy
	if policy == "" {
		policy = SubmitOptimistic
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &DataForm{
		api:      deps.API,
		nav:      nav,
		opener:   deps.Opener,
		journal:  deps.Journal,
		policy:   policy,
		chatID:   chatID,
		metrics:  deps.Metrics,
		log:      log,
		position: *params.Position,
		draft:    entities.NewOrphanageDraft(),
	}, nil
}

// Position is the coordinate received from the picker
func (f *DataForm) Position() entities.Coordinate {
	return f.position
}

// Draft returns a copy of the current draft
func (f *DataForm) Draft() entities.OrphanageDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.draft
	d.ImageURIs = append([]string(nil), f.draft.ImageURIs...)
	return d
}

func (f *DataForm) SetName(v string) { f.edit(func(d *entities.OrphanageDraft) { d.Name = v }) }

func (f *DataForm) SetAbout(v string) { f.edit(func(d *entities.OrphanageDraft) { d.About = v }) }

func (f *DataForm) SetInstructions(v string) {
	f.edit(func(d *entities.OrphanageDraft) { d.Instructions = v })
}

func (f *DataForm) SetOpeningHours(v string) {
	f.edit(func(d *entities.OrphanageDraft) { d.OpeningHours = v })
}

func (f *DataForm) SetOpenOnWeekends(v bool) {
	f.edit(func(d *entities.OrphanageDraft) { d.OpenOnWeekends = v })
}

func (f *DataForm) edit(fn func(d *entities.OrphanageDraft)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.draft)
}

// AddPhoto runs the picker once. A picked photo is appended; a cancelled pick
// changes nothing; a refused permission returns ErrPhotoPermissionDenied.
// It reports whether a photo was added.
func (f *DataForm) AddPhoto(ctx context.Context, picker ImagePicker) (bool, error) {
	res, err := picker.Pick(ctx)
	if err != nil {
		return false, errors.Wrap(err, "photo picker failed")
	}

	switch res.Status {
	case PickPermissionDenied:
		return false, ErrPhotoPermissionDenied
	case PickPicked:
		if res.URI == "" {
			return false, nil
		}
		f.mu.Lock()
		f.draft.ImageURIs = append(f.draft.ImageURIs, res.URI)
		f.mu.Unlock()
		return true, nil
	default:
		return false, nil
	}
}

// Submit sends the draft in a single create request and journals the outcome.
// Navigation back to the map follows the configured SubmitPolicy.
func (f *DataForm) Submit(ctx context.Context) (*SubmitResult, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	f.submitting = true
	draft := f.draft
	draft.ImageURIs = append([]string(nil), f.draft.ImageURIs...)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	payload, err := integration.BuildCreatePayload(ctx, f.position, draft, f.opener)
	if err != nil {
		// nothing reached the API, so the user stays on the form
		return nil, errors.Wrap(err, "failed to build orphanage payload")
	}

	f.log.Infof("Submitting orphanage %q at %s,%s with %d photos", draft.Name,
		integration.FormatCoordinate(f.position.Latitude), integration.FormatCoordinate(f.position.Longitude), len(draft.ImageURIs))

	result := &SubmitResult{Outcome: entities.OutcomeCreated}
	if err := f.api.CreateOrphanage(ctx, payload); err != nil {
		result.Outcome = entities.OutcomeFailed
		result.Err = err
		f.log.Warnf("Orphanage submission failed: %v", err)
	}
	f.metrics.Submission(string(result.Outcome))

	result.Record = f.record(draft, result)

	if result.Outcome == entities.OutcomeCreated || f.policy == SubmitOptimistic {
		result.Navigated = true
		f.nav.Navigate(ctx, entities.ScreenOrphanagesMap, entities.NavigationParams{})
	}
	return result, nil
}

// Discard leaves the flow without submitting
func (f *DataForm) Discard(ctx context.Context) {
	f.nav.Navigate(ctx, entities.ScreenOrphanagesMap, entities.NavigationParams{})
}

func (f *DataForm) record(draft entities.OrphanageDraft, result *SubmitResult) *entities.SubmissionRecord {
	rec := &entities.SubmissionRecord{
		ChatID:     f.chatID,
		Name:       draft.Name,
		Latitude:   f.position.Latitude,
		Longitude:  f.position.Longitude,
		ImageCount: len(draft.ImageURIs),
		Outcome:    result.Outcome,
		CreatedAt:  time.Now(),
	}
	if result.Err != nil {
		rec.Error = result.Err.Error()
	}
	if f.journal == nil {
		return rec
	}
	if err := f.journal.SaveSubmission(rec); err != nil {
		f.log.Errorf("Error saving submission journal entry: %v", err)
	}
	return rec
}

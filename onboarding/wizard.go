// ABOUTME: Three-step onboarding state machine for new tenants
// ABOUTME: Validated transitions, background geolocation and account plus profile creation
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/geo"
	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/taxonomy"
)

type Step int

const (
	StepBusinessInfo Step = iota + 1
	StepContactInfo
	StepLocationInfo
	StepSubmitting
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepBusinessInfo:
		return "business info"
	case StepContactInfo:
		return "contact info"
	case StepLocationInfo:
		return "location info"
	case StepSubmitting:
		return "submitting"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

type LocationStatus int

const (
	LocationIdle LocationStatus = iota
	LocationDetecting
	LocationSuccess
	LocationError
)

func (s LocationStatus) String() string {
	switch s {
	case LocationDetecting:
		return "detecting"
	case LocationSuccess:
		return "success"
	case LocationError:
		return "error"
	default:
		return "idle"
	}
}

var (
	ErrLastStep = errors.New("already on the last form step")
	ErrNotReady = errors.New("wizard is not on the location step")
)

// Deps are the collaborators a wizard talks to.
type Deps struct {
	Identity identity.Service
	Store    docstore.Store
	Locator  geo.Locator
	Taxonomy *taxonomy.Taxonomy
	Logger   *log.Logger
}

type Wizard struct {
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	step     Step
	form     Form
	errs     map[string]string
	location LocationStatus

	locateOnce sync.Once
	located    chan struct{}
}

func New(deps Deps) *Wizard {
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	return &Wizard{
		deps:    deps,
		now:     func() time.Time { return time.Now().UTC() },
		step:    StepBusinessInfo,
		errs:    make(map[string]string),
		located: make(chan struct{}),
	}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Errors returns a copy of the current field errors.
func (w *Wizard) Errors() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.errs))
	for k, v := range w.errs {
		out[k] = v
	}
	return out
}

func (w *Wizard) Location() LocationStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.location
}

// SubRegionOptions lists the sub-regions for the currently selected region.
func (w *Wizard) SubRegionOptions() []string {
	if w.deps.Taxonomy == nil {
		return nil
	}
	return w.deps.Taxonomy.SubRegionsOf(w.Form().Region)
}

// SetField updates one field and clears its error. Changing the region
// always clears the sub-region.
func (w *Wizard) SetField(name, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, err := w.form.field(name)
	if err != nil {
		return err
	}
	*p = value
	delete(w.errs, name)

	if name == FieldRegion {
		w.form.SubRegion = ""
	}
	return nil
}

// Next validates the current step and advances. On failure the wizard
// stays put and the field errors are recorded.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepBusinessInfo, StepContactInfo:
	case StepLocationInfo:
		return ErrLastStep
	default:
		return fmt.Errorf("cannot advance from %s", w.step)
	}

	errs := ValidateStep(w.step, w.form, w.deps.Taxonomy)
	w.errs = errs
	if len(errs) > 0 {
		return models.NewValidationError(copyErrs(errs))
	}
	w.step++
	return nil
}

// Back moves to the previous form step without validation.
func (w *Wizard) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepContactInfo || w.step == StepLocationInfo {
		w.step--
	}
}

// StartLocating looks up coordinates once in the background. The returned
// channel closes when the attempt finishes. Coordinates are written into
// the form whatever step the wizard is on.
func (w *Wizard) StartLocating(ctx context.Context) <-chan struct{} {
	w.locateOnce.Do(func() {
		if w.deps.Locator == nil {
			w.mu.Lock()
			w.location = LocationError
			w.mu.Unlock()
			close(w.located)
			return
		}

		w.mu.Lock()
		w.location = LocationDetecting
		w.mu.Unlock()

		go func() {
			defer close(w.located)

			lctx, cancel := context.WithTimeout(ctx, geo.Timeout)
			defer cancel()

			coords, err := w.deps.Locator.Locate(lctx)

			w.mu.Lock()
			defer w.mu.Unlock()
			if err != nil {
				w.location = LocationError
				w.deps.Logger.Warn("location detection failed", "err", err)
				return
			}
			w.form.Latitude, w.form.Longitude = coords.Strings()
			w.location = LocationSuccess
		}()
	})
	return w.located
}

// Submit revalidates every step, creates the identity with the ID number
// as its secret, writes the business profile and signs the new identity in.
// Any failure leaves the wizard on the location step. Validation errors
// from every step are recorded together so earlier fields can be fixed
// with Back.
func (w *Wizard) Submit(ctx context.Context) (*models.BusinessProfile, error) {
	w.mu.Lock()
	if w.step != StepLocationInfo {
		w.mu.Unlock()
		return nil, ErrNotReady
	}
	errs := make(map[string]string)
	for _, step := range []Step{StepBusinessInfo, StepContactInfo, StepLocationInfo} {
		for field, msg := range ValidateStep(step, w.form, w.deps.Taxonomy) {
			errs[field] = msg
		}
	}
	if len(errs) > 0 {
		w.errs = errs
		w.mu.Unlock()
		return nil, models.NewValidationError(copyErrs(errs))
	}
	w.step = StepSubmitting
	w.errs = make(map[string]string)
	form := w.form
	location := w.location
	w.mu.Unlock()

	if location != LocationSuccess {
		w.deps.Logger.Warn("submitting without coordinates", "location", location)
	}

	email := strings.TrimSpace(form.Email)
	id, err := w.deps.Identity.CreateAccount(ctx, email, form.IDNumber)
	if err != nil {
		return nil, w.fail(&models.RemoteError{Op: "create account", Err: err})
	}

	profile := profileFromForm(id, form, w.now())
	if err := w.deps.Store.Set(ctx, docstore.ProfilePath(id), profile); err != nil {
		if derr := w.deps.Identity.DeleteAccount(ctx, id); derr != nil {
			w.deps.Logger.Error("orphaned identity after profile write failure", "user", id, "err", derr)
			return nil, w.fail(&models.PartialFailureError{IdentityID: id, Err: err})
		}
		return nil, w.fail(&models.RemoteError{Op: "save business profile", Err: err})
	}

	if _, err := w.deps.Identity.SignIn(ctx, email, form.IDNumber); err != nil {
		w.deps.Logger.Error("registered but sign-in failed", "user", id, "err", err)
	}

	w.mu.Lock()
	w.step = StepDone
	w.mu.Unlock()

	w.deps.Logger.Info("business registered", "user", id, "business", profile.BusinessName)
	return profile, nil
}

func (w *Wizard) fail(err error) error {
	w.mu.Lock()
	w.step = StepLocationInfo
	w.mu.Unlock()
	w.deps.Logger.Error("registration failed", "err", err)
	return err
}

func profileFromForm(id string, f Form, now time.Time) *models.BusinessProfile {
	return &models.BusinessProfile{
		TenantID:           id,
		BusinessName:       strings.TrimSpace(f.BusinessName),
		OwnerName:          strings.TrimSpace(f.OwnerName),
		RegistrationNumber: strings.TrimSpace(f.RegistrationNumber),
		Email:              strings.TrimSpace(f.Email),
		PhoneNumber:        strings.TrimSpace(f.PhoneNumber),
		WhatsAppNumber:     strings.TrimSpace(f.WhatsAppNumber),
		IDNumber:           f.IDNumber,
		Category:           strings.TrimSpace(f.Category),
		Latitude:           f.Latitude,
		Longitude:          f.Longitude,
		Region:             f.Region,
		SubRegion:          f.SubRegion,
		CreatedAt:          now,
	}
}

func copyErrs(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

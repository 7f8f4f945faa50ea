// ABOUTME: Tests for the onboarding state machine
// ABOUTME: Step validation, geolocation, registration and failure compensation
package onboarding

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/rentdesk/charm"
	"github.com/harperreed/rentdesk/db"
	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/geo"
	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rejectingStore struct{ docstore.Store }

func (rejectingStore) Set(ctx context.Context, path string, data interface{}) error {
	return errors.New("permission denied")
}

type stickyIdentity struct{ *identity.Local }

func (stickyIdentity) DeleteAccount(ctx context.Context, id string) error {
	return errors.New("identity provider unavailable")
}

type fixture struct {
	svc   *identity.Local
	store docstore.Store
	deps  Deps
}

func setup(t *testing.T) *fixture {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "wizard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	svc := identity.NewLocal(database, nil)
	store := charm.NewDocStore(charm.NewTestClient(t))
	return &fixture{
		svc:   svc,
		store: store,
		deps: Deps{
			Identity: svc,
			Store:    store,
			Locator:  geo.Static{Coords: geo.Coordinates{Latitude: -1.2921, Longitude: 36.8219}},
			Taxonomy: taxonomy.Default(),
		},
	}
}

func fill(t *testing.T, w *Wizard, values map[string]string) {
	t.Helper()
	for k, v := range values {
		require.NoError(t, w.SetField(k, v))
	}
}

var (
	businessInfo = map[string]string{
		FieldBusinessName: "Acme Homes",
		FieldOwnerName:    "Amina Njeri",
		FieldEmail:        "a@b.co",
	}
	contactInfo = map[string]string{
		FieldPhoneNumber:    "+254 712 345 678",
		FieldWhatsAppNumber: "0712345678",
		FieldIDNumber:       "12345678",
	}
)

func advanceToLocation(t *testing.T, w *Wizard) {
	t.Helper()
	fill(t, w, businessInfo)
	require.NoError(t, w.Next())
	fill(t, w, contactInfo)
	require.NoError(t, w.Next())
	require.Equal(t, StepLocationInfo, w.Step())
	require.NoError(t, w.SetField(FieldRegion, "Nairobi"))
	require.NoError(t, w.SetField(FieldSubRegion, "Westlands"))
}

func TestEmptyBusinessNameBlocksStepOne(t *testing.T) {
	w := New(setup(t).deps)
	fill(t, w, map[string]string{FieldOwnerName: "Amina", FieldEmail: "a@b.co"})

	err := w.Next()
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))

	assert.Equal(t, StepBusinessInfo, w.Step())
	assert.Equal(t, "Business name is required", w.Errors()[FieldBusinessName])
}

func TestEmailValidation(t *testing.T) {
	w := New(setup(t).deps)
	fill(t, w, map[string]string{FieldBusinessName: "Acme", FieldOwnerName: "Amina", FieldEmail: "not-an-email"})

	require.Error(t, w.Next())
	assert.Equal(t, StepBusinessInfo, w.Step())
	assert.Equal(t, "Please enter a valid email address", w.Errors()[FieldEmail])

	require.NoError(t, w.SetField(FieldEmail, "a@b.co"))
	assert.NotContains(t, w.Errors(), FieldEmail)
	require.NoError(t, w.Next())
	assert.Equal(t, StepContactInfo, w.Step())
}

func TestContactValidation(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value string
		msg   string
	}{
		{"short phone", FieldPhoneNumber, "12345", "Please enter a valid phone number"},
		{"letters in whatsapp", FieldWhatsAppNumber, "07123abc678", "Please enter a valid WhatsApp number"},
		{"six digit id", FieldIDNumber, "123456", "Please enter a valid Kenyan ID number (7-8 digits)"},
		{"nine digit id", FieldIDNumber, "123456789", "Please enter a valid Kenyan ID number (7-8 digits)"},
		{"missing id", FieldIDNumber, "", "ID number is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := New(setup(t).deps)
			fill(t, w, businessInfo)
			require.NoError(t, w.Next())
			fill(t, w, contactInfo)
			require.NoError(t, w.SetField(tc.field, tc.value))

			require.Error(t, w.Next())
			assert.Equal(t, StepContactInfo, w.Step())
			assert.Equal(t, tc.msg, w.Errors()[tc.field])
		})
	}
}

func TestPhoneWhitespaceIsIgnored(t *testing.T) {
	errs := ValidateStep(StepContactInfo, Form{
		PhoneNumber:    "0712 345 678",
		WhatsAppNumber: "(0712) 345-678",
		IDNumber:       "1234567",
	}, nil)
	assert.Empty(t, errs)
}

func TestBackNeverValidates(t *testing.T) {
	w := New(setup(t).deps)
	fill(t, w, businessInfo)
	require.NoError(t, w.Next())

	w.Back()
	assert.Equal(t, StepBusinessInfo, w.Step())
	w.Back()
	assert.Equal(t, StepBusinessInfo, w.Step())
}

func TestRegionChangeClearsSubRegion(t *testing.T) {
	w := New(setup(t).deps)
	require.NoError(t, w.SetField(FieldRegion, "Nairobi"))
	require.NoError(t, w.SetField(FieldSubRegion, "Kibra"))
	assert.Contains(t, w.SubRegionOptions(), "Kibra")

	require.NoError(t, w.SetField(FieldRegion, "Mombasa"))
	assert.Empty(t, w.Form().SubRegion)
	assert.Contains(t, w.SubRegionOptions(), "Nyali")
}

func TestSetFieldUnknown(t *testing.T) {
	w := New(setup(t).deps)
	assert.Error(t, w.SetField("favouriteColour", "blue"))
}

func TestLastStepNext(t *testing.T) {
	w := New(setup(t).deps)
	advanceToLocation(t, w)
	assert.ErrorIs(t, w.Next(), ErrLastStep)
}

func TestLocationFillsCoordinates(t *testing.T) {
	w := New(setup(t).deps)

	<-w.StartLocating(context.Background())
	assert.Equal(t, LocationSuccess, w.Location())
	assert.Equal(t, "-1.2921", w.Form().Latitude)
	assert.Equal(t, "36.8219", w.Form().Longitude)

	// runs once
	<-w.StartLocating(context.Background())
}

type blockingLocator struct{}

func (blockingLocator) Locate(ctx context.Context) (geo.Coordinates, error) {
	<-ctx.Done()
	return geo.Coordinates{}, ctx.Err()
}

func TestLocationTimeoutDoesNotBlockSubmit(t *testing.T) {
	f := setup(t)
	f.deps.Locator = blockingLocator{}
	w := New(f.deps)

	ctx, cancel := context.WithCancel(context.Background())
	done := w.StartLocating(ctx)
	assert.Equal(t, LocationDetecting, w.Location())

	advanceToLocation(t, w)
	profile, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, profile.Latitude)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locator did not stop")
	}
	assert.Equal(t, LocationError, w.Location())
}

func TestSubmitRegistersAndSignsIn(t *testing.T) {
	f := setup(t)
	w := New(f.deps)
	ctx := context.Background()

	<-w.StartLocating(ctx)
	advanceToLocation(t, w)

	profile, err := w.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepDone, w.Step())

	doc, err := f.store.Get(ctx, docstore.ProfilePath(profile.TenantID))
	require.NoError(t, err)
	var stored models.BusinessProfile
	require.NoError(t, doc.DataTo(&stored))
	assert.Equal(t, "Acme Homes", stored.BusinessName)
	assert.Equal(t, "Nairobi", stored.Region)
	assert.Equal(t, "Westlands", stored.SubRegion)
	assert.Equal(t, "-1.2921", stored.Latitude)

	current, err := f.svc.Current(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, profile.TenantID, current.ID)
}

func TestSubmitRevalidatesEarlierSteps(t *testing.T) {
	w := New(setup(t).deps)
	advanceToLocation(t, w)

	// bypass Next: break step one while on step three
	require.NoError(t, w.SetField(FieldEmail, "broken"))

	_, err := w.Submit(context.Background())
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, StepLocationInfo, w.Step())
	assert.Contains(t, w.Errors(), FieldEmail)
}

func TestSubmitCollectsErrorsFromEveryStep(t *testing.T) {
	w := New(setup(t).deps)
	advanceToLocation(t, w)

	require.NoError(t, w.SetField(FieldBusinessName, ""))
	require.NoError(t, w.SetField(FieldIDNumber, "12"))

	_, err := w.Submit(context.Background())
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, StepLocationInfo, w.Step())
	assert.Contains(t, w.Errors(), FieldBusinessName)
	assert.Contains(t, w.Errors(), FieldIDNumber)

	w.Back()
	w.Back()
	assert.Equal(t, StepBusinessInfo, w.Step())
}

func TestSubmitRequiresLocationStep(t *testing.T) {
	w := New(setup(t).deps)
	_, err := w.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSubmitSubRegionMustMatchRegion(t *testing.T) {
	w := New(setup(t).deps)
	advanceToLocation(t, w)
	require.NoError(t, w.SetField(FieldSubRegion, "Nyali"))

	_, err := w.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, StepLocationInfo, w.Step())
	assert.Contains(t, w.Errors(), FieldSubRegion)
}

func TestSubmitEmailInUse(t *testing.T) {
	f := setup(t)
	_, err := f.svc.CreateAccount(context.Background(), "a@b.co", "99999999")
	require.NoError(t, err)

	w := New(f.deps)
	advanceToLocation(t, w)

	_, err = w.Submit(context.Background())
	var rerr *models.RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.ErrorIs(t, err, identity.ErrEmailInUse)
	assert.Equal(t, StepLocationInfo, w.Step())
}

func TestProfileWriteFailureDeletesIdentity(t *testing.T) {
	f := setup(t)
	f.deps.Store = rejectingStore{f.store}
	w := New(f.deps)
	advanceToLocation(t, w)

	_, err := w.Submit(context.Background())
	var rerr *models.RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, StepLocationInfo, w.Step())

	// the compensated account can be registered again
	_, err = f.svc.CreateAccount(context.Background(), "a@b.co", "12345678")
	assert.NoError(t, err)
}

func TestProfileWriteAndCompensationFailure(t *testing.T) {
	f := setup(t)
	f.deps.Store = rejectingStore{f.store}
	f.deps.Identity = stickyIdentity{f.svc}
	w := New(f.deps)
	advanceToLocation(t, w)

	_, err := w.Submit(context.Background())
	var perr *models.PartialFailureError
	require.True(t, errors.As(err, &perr))
	assert.NotEmpty(t, perr.IdentityID)
	assert.Equal(t, StepLocationInfo, w.Step())
}

func TestStepStrings(t *testing.T) {
	assert.Equal(t, "business info", StepBusinessInfo.String())
	assert.Equal(t, "done", StepDone.String())
	assert.Equal(t, "detecting", LocationDetecting.String())
}

package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/rentdesk/blob"
	"github.com/harperreed/rentdesk/charm"
	"github.com/harperreed/rentdesk/db"
	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/leads"
	"github.com/harperreed/rentdesk/listings"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/session"
	"github.com/harperreed/rentdesk/taxonomy"
	"github.com/harperreed/rentdesk/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server   *Server
	identity *identity.Local
	repo     *listings.Repository
	store    docstore.Store
	tenant   string
	cookie   *http.Cookie
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	svc := identity.NewLocal(database, nil)
	tenant, err := svc.CreateAccount(ctx, "owner@acme.co.ke", "12345678")
	require.NoError(t, err)

	store := charm.NewDocStore(charm.NewTestClient(t))
	require.NoError(t, store.Set(ctx, docstore.ProfilePath(tenant), models.BusinessProfile{BusinessName: "Acme Homes"}))

	blobs, err := blob.Open("", "/blobs")
	require.NoError(t, err)
	t.Cleanup(func() { _ = blobs.Close() })

	repo := listings.New(store, upload.New(blobs, nil), taxonomy.Default(), nil)

	server, err := NewServer(Deps{
		Identity: svc,
		Profiles: session.NewProfileLoader(store, nil),
		Listings: repo,
		Leads:    leads.New(store, nil),
		Blobs:    blobs,
	})
	require.NoError(t, err)

	return &fixture{server: server, identity: svc, repo: repo, store: store, tenant: tenant}
}

// signIn signs in through the web form and keeps the session cookie.
func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/signin", url.Values{"email": {"owner@acme.co.ke"}, "secret": {"12345678"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	f.cookie = sessionCookie(rec)
	require.NotNil(t, f.cookie)
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

func (f *fixture) addListing(t *testing.T) *models.Listing {
	t.Helper()
	listing, err := f.repo.Create(context.Background(), f.tenant, listings.Draft{
		Title:            "Garden flat",
		Description:      "Two bedrooms near the park",
		PropertyType:     models.PropertyApartment,
		AvailabilityType: models.AvailabilityForRent,
		RentPrice:        45000,
		Bedrooms:         2,
		Town:             "Kilimani",
		Region:           "Nairobi",
		SubRegion:        "Dagoretti North",
		Images: []models.ListingImage{
			models.PendingImage{Name: "front.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")},
		},
	})
	require.NoError(t, err)
	return listing
}

func (f *fixture) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if f.cookie != nil {
		req.AddCookie(f.cookie)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestDashboardRedirectsWhenSignedOut(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/signin", rec.Header().Get("Location"))

	rec = f.do(t, http.MethodGet, "/signin", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="secret"`)
}

func TestSignin(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/signin", url.Values{"email": {"owner@acme.co.ke"}, "secret": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid email or password")

	assert.Nil(t, sessionCookie(rec))

	f.signIn(t)
	assert.True(t, f.cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, f.cookie.SameSite)

	user, err := f.identity.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)

	rec = f.do(t, http.MethodPost, "/signout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	user, err = f.identity.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, user)

	// the old cookie no longer opens the dashboard
	rec = f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/signin", rec.Header().Get("Location"))
}

func TestRequestsWithoutSessionCookieRedirect(t *testing.T) {
	f := setup(t)
	listing := f.addListing(t)

	// signed in from the command line, not through this browser
	_, err := f.identity.SignIn(context.Background(), "owner@acme.co.ke", "12345678")
	require.NoError(t, err)

	for _, target := range []string{"/listings/" + listing.ID + "/delete", "/listings/" + listing.ID + "/toggle", "/signout"} {
		rec := f.do(t, http.MethodPost, target, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, target)
		assert.Equal(t, "/signin", rec.Header().Get("Location"), target)
	}
	rec := f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, "/signin", rec.Header().Get("Location"))

	got, ok := f.repo.Get(listing.ID)
	require.True(t, ok)
	assert.True(t, got.IsVacant)

	user, err := f.identity.Current(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, user)

	f.cookie = &http.Cookie{Name: SessionCookie, Value: "made-up"}
	rec = f.do(t, http.MethodPost, "/listings/"+listing.ID+"/delete", nil)
	assert.Equal(t, "/signin", rec.Header().Get("Location"))
	_, ok = f.repo.Get(listing.ID)
	assert.True(t, ok)
}

func TestCrossOriginPostRejected(t *testing.T) {
	f := setup(t)
	f.signIn(t)
	listing := f.addListing(t)

	req := httptest.NewRequest(http.MethodPost, "/listings/"+listing.ID+"/delete", nil)
	req.AddCookie(f.cookie)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, ok := f.repo.Get(listing.ID)
	assert.True(t, ok)

	req = httptest.NewRequest(http.MethodPost, "/listings/"+listing.ID+"/toggle", nil)
	req.AddCookie(f.cookie)
	req.Header.Set("Origin", "http://"+req.Host)
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSessionEndsWhenIdentitySignsOut(t *testing.T) {
	f := setup(t)
	f.signIn(t)

	rec := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, f.identity.SignOut(context.Background()))

	rec = f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/signin", rec.Header().Get("Location"))
}

func TestDashboardShowsListings(t *testing.T) {
	f := setup(t)
	f.signIn(t)
	listing := f.addListing(t)

	rec := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Acme Homes")
	assert.Contains(t, body, "Garden flat")
	assert.Contains(t, body, "KES 45000")
	assert.Contains(t, body, "/listings/"+listing.ID+"/leads")
	assert.Contains(t, body, "/blobs/PostImage/front.jpg")
}

func TestToggleAndDelete(t *testing.T) {
	f := setup(t)
	f.signIn(t)
	listing := f.addListing(t)

	rec := f.do(t, http.MethodPost, "/listings/"+listing.ID+"/toggle", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	got, ok := f.repo.Get(listing.ID)
	require.True(t, ok)
	assert.False(t, got.IsVacant)

	rec = f.do(t, http.MethodPost, "/listings/missing/toggle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/listings/"+listing.ID+"/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	_, ok = f.repo.Get(listing.ID)
	assert.False(t, ok)
}

func TestLeadsPage(t *testing.T) {
	f := setup(t)
	f.signIn(t)
	listing := f.addListing(t)

	_, err := f.store.Add(context.Background(), docstore.LeadsCollection(f.tenant, listing.ID),
		models.ContactAttempt{ClientName: "Wanjiru", ClientPhone: "0712345678", ContactType: models.ContactTypeCall})
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/listings/"+listing.ID+"/leads", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Leads for Garden flat")
	assert.Contains(t, rec.Body.String(), "Wanjiru")

	rec = f.do(t, http.MethodGet, "/listings/missing/leads", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeBlob(t *testing.T) {
	f := setup(t)
	f.addListing(t)

	rec := f.do(t, http.MethodGet, "/blobs/PostImage/front.jpg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "jpeg-bytes", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/blobs/PostImage/nope.jpg", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGraph(t *testing.T) {
	f := setup(t)
	f.signIn(t)
	f.addListing(t)

	rec := f.do(t, http.MethodGet, "/graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "digraph")
}

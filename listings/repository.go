// ABOUTME: Listing repository keeping a local view of a tenant's listing collection
// ABOUTME: CRUD against the Document Store with portfolio stats recomputed on every change
package listings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/taxonomy"
)

// ErrProfileNotFound means onboarding has not completed for the tenant.
var ErrProfileNotFound = fmt.Errorf("business profile %w", models.ErrNotFound)

// ImageResolver uploads pending images and returns the full ordered URL list.
type ImageResolver interface {
	Resolve(ctx context.Context, images []models.ListingImage) ([]models.PersistedImage, error)
}

// Repository owns the in-memory listing set and its derived stats. Listings
// and stats are always replaced together under mu.
type Repository struct {
	store    docstore.Store
	images   ImageResolver
	taxonomy *taxonomy.Taxonomy
	logger   *log.Logger
	now      func() time.Time

	mu       sync.RWMutex
	listings []models.Listing
	stats    models.PortfolioStats
}

// New builds a repository. tax may be nil to skip sub-region checks.
func New(store docstore.Store, images ImageResolver, tax *taxonomy.Taxonomy, logger *log.Logger) *Repository {
	if logger == nil {
		logger = log.Default()
	}
	return &Repository{
		store:    store,
		images:   images,
		taxonomy: tax,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// replace installs a new listing set and its stats as one transition.
// Callers must hold mu.
func (r *Repository) replace(listings []models.Listing) {
	r.listings = listings
	r.stats = models.ComputeStats(listings)
}

// Listings returns a copy of the local view, newest first.
func (r *Repository) Listings() []models.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Listing, len(r.listings))
	copy(out, r.listings)
	return out
}

// Get returns a listing from the local view.
func (r *Repository) Get(id string) (models.Listing, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.listings {
		if l.ID == id {
			return l, true
		}
	}
	return models.Listing{}, false
}

func (r *Repository) Stats() models.PortfolioStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// LoadAll fetches the tenant's listings, newest first, and replaces the
// local view. The view is emptied on any failure.
func (r *Repository) LoadAll(ctx context.Context, tenantID string) ([]models.Listing, error) {
	_, err := r.store.Get(ctx, docstore.ProfilePath(tenantID))
	if errors.Is(err, docstore.ErrNotFound) {
		r.reset()
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, tenantID)
	}
	if err != nil {
		r.reset()
		return nil, &models.RemoteError{Op: "load business profile", Err: err}
	}

	docs, err := r.store.List(ctx, docstore.ListingsCollection(tenantID))
	if err != nil {
		r.reset()
		return nil, &models.RemoteError{Op: "load listings", Err: err}
	}

	listings := make([]models.Listing, 0, len(docs))
	for _, doc := range docs {
		l, err := decodeListing(doc)
		if err != nil {
			r.logger.Warn("skipping unreadable listing", "path", doc.Path, "err", err)
			continue
		}
		listings = append(listings, l)
	}
	sortNewestFirst(listings)

	r.mu.Lock()
	r.replace(listings)
	r.mu.Unlock()

	r.logger.Debug("listings loaded", "tenant", tenantID, "count", len(listings))
	return r.Listings(), nil
}

func (r *Repository) reset() {
	r.mu.Lock()
	r.replace(nil)
	r.mu.Unlock()
}

// Create validates the draft, uploads its pending images, writes the
// listing and adds it to the local view. New listings start vacant.
func (r *Repository) Create(ctx context.Context, tenantID string, draft Draft) (*models.Listing, error) {
	draft = draft.Normalize()
	if err := draft.Validate(r.taxonomy); err != nil {
		return nil, err
	}

	images, err := r.images.Resolve(ctx, draft.Images)
	if err != nil {
		return nil, err
	}

	now := r.now()
	listing := applyDraft(models.Listing{IsVacant: true, CreatedAt: now}, draft, images, now)

	id, err := r.store.Add(ctx, docstore.ListingsCollection(tenantID), listing)
	if err != nil {
		return nil, &models.RemoteError{Op: "create listing", Err: err}
	}
	listing.ID = id

	r.mu.Lock()
	next := make([]models.Listing, 0, len(r.listings)+1)
	next = append(next, listing)
	next = append(next, r.listings...)
	r.replace(next)
	r.mu.Unlock()

	r.logger.Info("listing created", "tenant", tenantID, "id", id, "images", len(images))
	return &listing, nil
}

// Update validates the draft, uploads only its pending images and writes
// the new fields. Persisted images keep their position; each pending image
// is replaced in place by its URL.
func (r *Repository) Update(ctx context.Context, tenantID, id string, draft Draft) (*models.Listing, error) {
	draft = draft.Normalize()
	if err := draft.Validate(r.taxonomy); err != nil {
		return nil, err
	}

	current, err := r.current(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	images, err := r.images.Resolve(ctx, draft.Images)
	if err != nil {
		return nil, err
	}

	updated := applyDraft(current, draft, images, r.now())
	fields, err := draftFields(updated)
	if err != nil {
		return nil, err
	}

	if err := r.store.Update(ctx, docstore.ListingPath(tenantID, id), fields); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
		}
		return nil, &models.RemoteError{Op: "update listing", Err: err}
	}

	r.patch(updated)
	r.logger.Info("listing updated", "tenant", tenantID, "id", id)
	return &updated, nil
}

// Delete removes the listing. A listing already gone remotely counts as
// deleted; the local entry is dropped either way.
func (r *Repository) Delete(ctx context.Context, tenantID, id string) error {
	err := r.store.Delete(ctx, docstore.ListingPath(tenantID, id))
	if err != nil && !errors.Is(err, docstore.ErrNotFound) {
		return &models.RemoteError{Op: "delete listing", Err: err}
	}

	r.mu.Lock()
	next := make([]models.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		if l.ID != id {
			next = append(next, l)
		}
	}
	r.replace(next)
	r.mu.Unlock()

	r.logger.Info("listing deleted", "tenant", tenantID, "id", id)
	return nil
}

// ToggleVacancy flips the vacancy flag remotely, then locally. The local
// view is untouched when the write fails.
func (r *Repository) ToggleVacancy(ctx context.Context, tenantID, id string) (*models.Listing, error) {
	current, err := r.current(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	current.IsVacant = !current.IsVacant
	current.UpdatedAt = r.now()

	err = r.store.Update(ctx, docstore.ListingPath(tenantID, id), map[string]interface{}{
		"isVacant":  current.IsVacant,
		"updatedAt": current.UpdatedAt,
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
		}
		return nil, &models.RemoteError{Op: "toggle vacancy", Err: err}
	}

	r.patch(current)
	r.logger.Info("vacancy toggled", "tenant", tenantID, "id", id, "vacant", current.IsVacant)
	return &current, nil
}

// current returns the listing from the local view, falling back to the store.
func (r *Repository) current(ctx context.Context, tenantID, id string) (models.Listing, error) {
	if l, ok := r.Get(id); ok {
		return l, nil
	}

	doc, err := r.store.Get(ctx, docstore.ListingPath(tenantID, id))
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Listing{}, fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Listing{}, &models.RemoteError{Op: "load listing", Err: err}
	}
	return decodeListing(doc)
}

// patch replaces (or inserts) a listing in the local view.
func (r *Repository) patch(updated models.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make([]models.Listing, len(r.listings))
	copy(next, r.listings)
	found := false
	for i := range next {
		if next[i].ID == updated.ID {
			next[i] = updated
			found = true
			break
		}
	}
	if !found {
		next = append(next, updated)
		sortNewestFirst(next)
	}
	r.replace(next)
}

func applyDraft(l models.Listing, d Draft, images []models.PersistedImage, now time.Time) models.Listing {
	l.Title = d.Title
	l.Description = d.Description
	l.PropertyType = d.PropertyType
	l.AvailabilityType = d.AvailabilityType
	l.SalePrice = d.SalePrice
	l.RentPrice = d.RentPrice
	l.Bedrooms = d.Bedrooms
	l.Town = d.Town
	l.Region = d.Region
	l.SubRegion = d.SubRegion
	l.Images = images
	l.UpdatedAt = now
	return l
}

// draftFields is the update payload: every stored field except the ones
// owned by create and toggle.
func draftFields(l models.Listing) (map[string]interface{}, error) {
	body, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to encode listing: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode listing: %w", err)
	}
	delete(fields, "createdAt")
	delete(fields, "isVacant")
	return fields, nil
}

func decodeListing(doc *docstore.Document) (models.Listing, error) {
	var l models.Listing
	if err := doc.DataTo(&l); err != nil {
		return models.Listing{}, err
	}
	l.ID = doc.ID()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = doc.CreatedAt
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = doc.UpdatedAt
	}
	return l, nil
}

func sortNewestFirst(listings []models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		if listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].ID > listings[j].ID
		}
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
}

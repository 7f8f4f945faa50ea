// ABOUTME: On-demand loader for a listing's contact attempts (leads)
// ABOUTME: Results are cached per listing and overwritten on every load
package leads

import (
	"context"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/models"
)

type Loader struct {
	store  docstore.Store
	logger *log.Logger

	mu    sync.RWMutex
	cache map[string][]models.ContactAttempt
}

func New(store docstore.Store, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{
		store:  store,
		logger: logger,
		cache:  make(map[string][]models.ContactAttempt),
	}
}

// Load fetches the listing's leads, newest first, and overwrites the cache
// entry. A failed fetch leaves the previous entry in place.
func (l *Loader) Load(ctx context.Context, tenantID, listingID string) ([]models.ContactAttempt, error) {
	docs, err := l.store.List(ctx, docstore.LeadsCollection(tenantID, listingID))
	if err != nil {
		return nil, &models.RemoteError{Op: "load leads", Err: err}
	}

	attempts := make([]models.ContactAttempt, 0, len(docs))
	for _, doc := range docs {
		var a models.ContactAttempt
		if err := doc.DataTo(&a); err != nil {
			l.logger.Warn("skipping unreadable lead", "path", doc.Path, "err", err)
			continue
		}
		a.ID = doc.ID()
		a.ListingID = listingID
		a.Timestamp = doc.CreatedAt
		attempts = append(attempts, a)
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		if attempts[i].Timestamp.Equal(attempts[j].Timestamp) {
			return attempts[i].ID > attempts[j].ID
		}
		return attempts[i].Timestamp.After(attempts[j].Timestamp)
	})

	l.mu.Lock()
	l.cache[listingID] = attempts
	l.mu.Unlock()

	l.logger.Debug("leads loaded", "listing", listingID, "count", len(attempts))
	return copyAttempts(attempts), nil
}

// Cached returns the last loaded leads for a listing.
func (l *Loader) Cached(listingID string) ([]models.ContactAttempt, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	attempts, ok := l.cache[listingID]
	if !ok {
		return nil, false
	}
	return copyAttempts(attempts), true
}

func copyAttempts(in []models.ContactAttempt) []models.ContactAttempt {
	out := make([]models.ContactAttempt, len(in))
	copy(out, in)
	return out
}

// ABOUTME: Document Store contract for the tenant-scoped RealEstate hierarchy
// ABOUTME: Defines Store, Document and the collection path helpers
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/harperreed/rentdesk/models"
	"github.com/oklog/ulid/v2"
)

// Root collection holding one profile document per tenant.
const RootCollection = "RealEstate"

const (
	listingsCollection = "properties"
	leadsCollection    = "contactAttempts"
)

// ErrNotFound is returned for reads, updates and deletes of missing documents.
var ErrNotFound = models.ErrNotFound

// Document is a stored JSON object addressed by its slash-separated path.
type Document struct {
	Path      string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ID returns the last path segment.
func (d *Document) ID() string {
	return Base(d.Path)
}

// DataTo decodes the document body into v.
func (d *Document) DataTo(v interface{}) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", d.Path, err)
	}
	return nil
}

// Store is the remote document hierarchy. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns ErrNotFound when no document exists at path.
	Get(ctx context.Context, path string) (*Document, error)
	// Set creates or replaces the document at path.
	Set(ctx context.Context, path string, data interface{}) error
	// Update merges fields into an existing document; ErrNotFound if missing.
	Update(ctx context.Context, path string, fields map[string]interface{}) error
	// Delete removes the document; ErrNotFound if missing.
	Delete(ctx context.Context, path string) error
	// Add creates a document with a store-assigned id under collection.
	Add(ctx context.Context, collection string, data interface{}) (string, error)
	// List returns the direct children of collection, oldest first.
	List(ctx context.Context, collection string) ([]*Document, error)
}

// Exporter is implemented by stores that can enumerate every document.
type Exporter interface {
	All(ctx context.Context) ([]*Document, error)
}

// Importer is implemented by stores that can restore a document with its
// original timestamps.
type Importer interface {
	Import(ctx context.Context, doc *Document) error
}

// ProfilePath is RealEstate/{tenantId}.
func ProfilePath(tenantID string) string {
	return Join(RootCollection, tenantID)
}

// ListingsCollection is RealEstate/{tenantId}/properties.
func ListingsCollection(tenantID string) string {
	return Join(ProfilePath(tenantID), listingsCollection)
}

// ListingPath is RealEstate/{tenantId}/properties/{listingId}.
func ListingPath(tenantID, listingID string) string {
	return Join(ListingsCollection(tenantID), listingID)
}

// LeadsCollection is RealEstate/{tenantId}/properties/{listingId}/contactAttempts.
func LeadsCollection(tenantID, listingID string) string {
	return Join(ListingPath(tenantID, listingID), leadsCollection)
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Base returns the final segment of path.
func Base(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Parent returns the collection that contains path.
func Parent(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

// IsChild reports whether path sits directly under collection.
func IsChild(collection, path string) bool {
	prefix := collection + "/"
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return !strings.Contains(path[len(prefix):], "/")
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewID returns a lexically sortable document id, increasing within a process.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
}

// Encode marshals data into a JSON object body.
func Encode(data interface{}) (json.RawMessage, error) {
	if raw, ok := data.(json.RawMessage); ok {
		return raw, nil
	}
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return body, nil
}

// Merge applies fields on top of an existing JSON object body.
func Merge(existing json.RawMessage, fields map[string]interface{}) (json.RawMessage, error) {
	merged := make(map[string]interface{})
	if len(existing) > 0 && string(existing) != "null" {
		if err := json.Unmarshal(existing, &merged); err != nil {
			return nil, fmt.Errorf("failed to decode existing document: %w", err)
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return Encode(merged)
}

// ABOUTME: Loads the signed-in tenant's business profile document
// ABOUTME: A missing profile is logged and reported as nil, not as an error
package session

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/models"
)

type ProfileLoader struct {
	store  docstore.Store
	logger *log.Logger
}

func NewProfileLoader(store docstore.Store, logger *log.Logger) *ProfileLoader {
	if logger == nil {
		logger = log.Default()
	}
	return &ProfileLoader{store: store, logger: logger}
}

// Load returns nil, nil when the tenant has no profile yet.
func (p *ProfileLoader) Load(ctx context.Context, tenantID string) (*models.BusinessProfile, error) {
	doc, err := p.store.Get(ctx, docstore.ProfilePath(tenantID))
	if errors.Is(err, docstore.ErrNotFound) {
		p.logger.Warn("no business profile for tenant", "tenant", tenantID)
		return nil, nil
	}
	if err != nil {
		return nil, &models.RemoteError{Op: "load business profile", Err: err}
	}

	var profile models.BusinessProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, err
	}
	profile.TenantID = tenantID
	return &profile, nil
}

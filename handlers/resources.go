// ABOUTME: MCP resource handlers for exposing portfolio data
// ABOUTME: Provides read-only access to listings, stats and regions via rentdesk:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/leads"
	"github.com/harperreed/rentdesk/listings"
	"github.com/harperreed/rentdesk/taxonomy"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "rentdesk://"

type ResourceHandlers struct {
	repo     *listings.Repository
	leads    *leads.Loader
	taxonomy *taxonomy.Taxonomy
	identity identity.Service
}

func NewResourceHandlers(repo *listings.Repository, loader *leads.Loader, tax *taxonomy.Taxonomy, svc identity.Service) *ResourceHandlers {
	return &ResourceHandlers{repo: repo, leads: loader, taxonomy: tax, identity: svc}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")

	switch parts[0] {
	case "listings":
		if len(parts) == 1 {
			return h.readAllListings(ctx, uri)
		}
		return h.readListing(ctx, uri, parts[1])
	case "stats":
		return h.readStats(ctx, uri)
	case "regions":
		return h.readRegions(uri)
	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

func (h *ResourceHandlers) readAllListings(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	tenant, err := currentTenant(ctx, h.identity)
	if err != nil {
		return nil, err
	}
	all, err := h.repo.LoadAll(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}

	out := make([]ListingOutput, len(all))
	for i, l := range all {
		out[i] = listingToOutput(l)
	}
	return jsonResource(uri, out)
}

// readListing includes the listing's leads.
func (h *ResourceHandlers) readListing(ctx context.Context, uri, id string) (*mcp.ReadResourceResult, error) {
	tenant, err := currentTenant(ctx, h.identity)
	if err != nil {
		return nil, err
	}

	l, ok := h.repo.Get(id)
	if !ok {
		if _, err := h.repo.LoadAll(ctx, tenant); err != nil {
			return nil, fmt.Errorf("failed to fetch listings: %w", err)
		}
		if l, ok = h.repo.Get(id); !ok {
			return nil, mcp.ResourceNotFoundError(uri)
		}
	}

	attempts, err := h.leads.Load(ctx, tenant, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}

	listingData := struct {
		ListingOutput
		Leads []LeadOutput `json:"leads"`
	}{
		ListingOutput: listingToOutput(l),
		Leads:         leadsToOutput(attempts),
	}
	return jsonResource(uri, listingData)
}

func (h *ResourceHandlers) readStats(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	tenant, err := currentTenant(ctx, h.identity)
	if err != nil {
		return nil, err
	}
	if _, err := h.repo.LoadAll(ctx, tenant); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	return jsonResource(uri, statsToOutput(h.repo.Stats()))
}

func (h *ResourceHandlers) readRegions(uri string) (*mcp.ReadResourceResult, error) {
	regions := make(map[string][]string)
	for _, county := range h.taxonomy.Regions() {
		regions[county] = h.taxonomy.SubRegionsOf(county)
	}
	return jsonResource(uri, regions)
}

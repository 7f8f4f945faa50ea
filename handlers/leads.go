// ABOUTME: Lead and location MCP tool handlers
// ABOUTME: Implements list_leads and list_regions tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/leads"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/taxonomy"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type LeadHandlers struct {
	loader   *leads.Loader
	identity identity.Service
}

func NewLeadHandlers(loader *leads.Loader, svc identity.Service) *LeadHandlers {
	return &LeadHandlers{loader: loader, identity: svc}
}

type ListLeadsInput struct {
	ListingID string `json:"listing_id" jsonschema:"Listing ID (required)"`
}

type LeadOutput struct {
	ID          string `json:"id"`
	ClientName  string `json:"client_name,omitempty"`
	ClientEmail string `json:"client_email,omitempty"`
	ClientPhone string `json:"client_phone,omitempty"`
	ContactType string `json:"contact_type"`
	Timestamp   string `json:"timestamp"`
}

type ListLeadsOutput struct {
	ListingID string       `json:"listing_id"`
	Leads     []LeadOutput `json:"leads"`
}

func (h *LeadHandlers) ListLeads(ctx context.Context, request *mcp.CallToolRequest, input ListLeadsInput) (*mcp.CallToolResult, ListLeadsOutput, error) {
	if input.ListingID == "" {
		return nil, ListLeadsOutput{}, fmt.Errorf("listing_id is required")
	}
	tenant, err := currentTenant(ctx, h.identity)
	if err != nil {
		return nil, ListLeadsOutput{}, err
	}

	attempts, err := h.loader.Load(ctx, tenant, input.ListingID)
	if err != nil {
		return nil, ListLeadsOutput{}, err
	}

	return nil, ListLeadsOutput{ListingID: input.ListingID, Leads: leadsToOutput(attempts)}, nil
}

func leadsToOutput(attempts []models.ContactAttempt) []LeadOutput {
	out := make([]LeadOutput, len(attempts))
	for i, a := range attempts {
		out[i] = leadToOutput(a)
	}
	return out
}

func leadToOutput(a models.ContactAttempt) LeadOutput {
	return LeadOutput{
		ID:          a.ID,
		ClientName:  a.ClientName,
		ClientEmail: a.ClientEmail,
		ClientPhone: a.ClientPhone,
		ContactType: a.ContactType,
		Timestamp:   a.Timestamp.Format(time.RFC3339),
	}
}

type RegionHandlers struct {
	taxonomy *taxonomy.Taxonomy
}

func NewRegionHandlers(tax *taxonomy.Taxonomy) *RegionHandlers {
	return &RegionHandlers{taxonomy: tax}
}

type ListRegionsInput struct {
	County string `json:"county,omitempty" jsonschema:"County to list constituencies for; omit to list counties"`
}

type ListRegionsOutput struct {
	County string   `json:"county,omitempty"`
	Names  []string `json:"names"`
}

func (h *RegionHandlers) ListRegions(_ context.Context, request *mcp.CallToolRequest, input ListRegionsInput) (*mcp.CallToolResult, ListRegionsOutput, error) {
	if input.County == "" {
		return nil, ListRegionsOutput{Names: h.taxonomy.Regions()}, nil
	}
	if !h.taxonomy.HasRegion(input.County) {
		return nil, ListRegionsOutput{}, fmt.Errorf("unknown county: %s", input.County)
	}
	return nil, ListRegionsOutput{County: input.County, Names: h.taxonomy.SubRegionsOf(input.County)}, nil
}

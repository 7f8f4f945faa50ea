// ABOUTME: GraphViz and dashboard MCP handlers
// ABOUTME: Provides portfolio_graph and portfolio_dashboard tools for agents
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/leads"
	"github.com/harperreed/rentdesk/listings"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/session"
	"github.com/harperreed/rentdesk/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	repo     *listings.Repository
	leads    *leads.Loader
	profiles *session.ProfileLoader
	identity identity.Service
}

func NewVizHandlers(repo *listings.Repository, loader *leads.Loader, profiles *session.ProfileLoader, svc identity.Service) *VizHandlers {
	return &VizHandlers{repo: repo, leads: loader, profiles: profiles, identity: svc}
}

type portfolioData struct {
	tenant   string
	business string
	listings []models.Listing
}

// loadPortfolio fetches the signed-in tenant's business name and listings.
func loadPortfolio(ctx context.Context, svc identity.Service, profiles *session.ProfileLoader, repo *listings.Repository) (*portfolioData, error) {
	tenant, err := currentTenant(ctx, svc)
	if err != nil {
		return nil, err
	}

	p := &portfolioData{tenant: tenant, business: "RentDesk"}
	profile, err := profiles.Load(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if profile != nil && profile.BusinessName != "" {
		p.business = profile.BusinessName
	}

	p.listings, err = repo.LoadAll(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return p, nil
}

type GenerateGraphInput struct{}

type GenerateGraphOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	p, err := loadPortfolio(ctx, h.identity, h.profiles, h.repo)
	if err != nil {
		return nil, GenerateGraphOutput{}, err
	}

	dot, err := viz.NewGraphGenerator().GeneratePortfolioGraph(p.business, p.listings)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// Count nodes and edges for stats
	return nil, GenerateGraphOutput{
		DOTSource: dot,
		NodeCount: strings.Count(dot, "label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}

type DashboardInput struct {
	IncludeLeads bool `json:"include_leads,omitempty" jsonschema:"Load each listing's leads to flag listings nobody has asked about"`
}

type DashboardOutput struct {
	Text string `json:"text"`
}

func (h *VizHandlers) Dashboard(ctx context.Context, request *mcp.CallToolRequest, input DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	p, err := loadPortfolio(ctx, h.identity, h.profiles, h.repo)
	if err != nil {
		return nil, DashboardOutput{}, err
	}

	var leadCounts map[string]int
	if input.IncludeLeads {
		leadCounts = make(map[string]int, len(p.listings))
		for _, l := range p.listings {
			attempts, err := h.leads.Load(ctx, p.tenant, l.ID)
			if err != nil {
				return nil, DashboardOutput{}, fmt.Errorf("failed to load leads for %s: %w", l.Title, err)
			}
			leadCounts[l.ID] = len(attempts)
		}
	}

	stats := viz.GenerateDashboardStats(p.listings, leadCounts, time.Now())
	return nil, DashboardOutput{Text: viz.RenderDashboard(p.business, stats)}, nil
}

// ABOUTME: MCP prompt handlers for reusable portfolio workflow templates
// ABOUTME: Provides prompts for listing copy, portfolio review and lead follow-up
package handlers

import (
	"context"
	"fmt"
	"strconv"
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

type PromptHandlers struct {
	repo     *listings.Repository
	leads    *leads.Loader
	profiles *session.ProfileLoader
	identity identity.Service
}

func NewPromptHandlers(repo *listings.Repository, loader *leads.Loader, profiles *session.ProfileLoader, svc identity.Service) *PromptHandlers {
	return &PromptHandlers{repo: repo, leads: loader, profiles: profiles, identity: svc}
}

// Prompts lists the templates GetPrompt serves.
func Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "listing-description",
			Description: "Draft marketing copy for one listing",
			Arguments: []*mcp.PromptArgument{
				{Name: "listing_id", Description: "Listing ID", Required: true},
			},
		},
		{
			Name:        "portfolio-review",
			Description: "Review vacancies, rent roll and stale listings",
			Arguments: []*mcp.PromptArgument{
				{Name: "stale_days", Description: "Flag vacancies unchanged this many days (default: 30)"},
			},
		},
		{
			Name:        "lead-follow-up",
			Description: "Suggest follow-up messages for a listing's leads",
			Arguments: []*mcp.PromptArgument{
				{Name: "listing_id", Description: "Listing ID", Required: true},
			},
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	arguments := request.Params.Arguments
	switch request.Params.Name {
	case "listing-description":
		return h.getListingDescriptionPrompt(ctx, arguments)
	case "portfolio-review":
		return h.getPortfolioReviewPrompt(ctx, arguments)
	case "lead-follow-up":
		return h.getLeadFollowUpPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

// listing finds id in the tenant's listings, loading them when not cached.
func (h *PromptHandlers) listing(ctx context.Context, args map[string]string) (string, models.Listing, error) {
	id, ok := args["listing_id"]
	if !ok || id == "" {
		return "", models.Listing{}, fmt.Errorf("listing_id is required")
	}
	tenant, err := currentTenant(ctx, h.identity)
	if err != nil {
		return "", models.Listing{}, err
	}
	if l, ok := h.repo.Get(id); ok {
		return tenant, l, nil
	}
	if _, err := h.repo.LoadAll(ctx, tenant); err != nil {
		return "", models.Listing{}, fmt.Errorf("failed to fetch listings: %w", err)
	}
	l, ok := h.repo.Get(id)
	if !ok {
		return "", models.Listing{}, models.ErrNotFound
	}
	return tenant, l, nil
}

func writeListing(b *strings.Builder, l models.Listing) {
	fmt.Fprintf(b, "Title: %s\n", l.Title)
	fmt.Fprintf(b, "Type: %s, %s\n", l.PropertyType, l.AvailabilityType)
	if l.Bedrooms > 0 {
		fmt.Fprintf(b, "Bedrooms: %d\n", l.Bedrooms)
	}
	if l.AvailabilityType == models.AvailabilityForRent {
		fmt.Fprintf(b, "Rent: KES %d per month\n", l.Price())
	} else {
		fmt.Fprintf(b, "Price: KES %d\n", l.Price())
	}
	fmt.Fprintf(b, "Location: %s, %s, %s County\n", l.Town, l.SubRegion, l.Region)
	fmt.Fprintf(b, "Photos: %d\n", len(l.Images))
	if l.Description != "" {
		fmt.Fprintf(b, "\nCurrent description: %s\n", l.Description)
	}
}

func (h *PromptHandlers) getListingDescriptionPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	_, l, err := h.listing(ctx, args)
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString("Please write marketing copy for this property listing:\n\n")
	writeListing(&promptText, l)

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A headline under 60 characters")
	promptText.WriteString("\n2. A two-paragraph description highlighting the location")
	promptText.WriteString("\n3. A short WhatsApp-ready version under 300 characters")

	return userPrompt(fmt.Sprintf("Listing copy for: %s", l.Title), promptText.String()), nil
}

func (h *PromptHandlers) getPortfolioReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	staleDays := 30
	if d, ok := args["stale_days"]; ok && d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid stale_days: %s", d)
		}
		staleDays = n
	}

	p, err := loadPortfolio(ctx, h.identity, h.profiles, h.repo)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stats := viz.GenerateDashboardStats(p.listings, nil, now)

	var promptText strings.Builder
	fmt.Fprintf(&promptText, "Please review the property portfolio of %s:\n\n", p.business)
	fmt.Fprintf(&promptText, "Total listings: %d\n", stats.Portfolio.Total)
	fmt.Fprintf(&promptText, "Vacant: %d, Occupied: %d, For sale: %d\n", stats.Portfolio.Vacant, stats.Portfolio.Occupied, stats.Portfolio.ForSale)
	fmt.Fprintf(&promptText, "Monthly rent roll: KES %d\n", stats.RentRoll)
	fmt.Fprintf(&promptText, "Vacant asking rent: KES %d\n", stats.VacantRent)

	if len(stats.ByCounty) > 0 {
		promptText.WriteString("\nBy county:\n")
		for _, c := range stats.ByCounty {
			fmt.Fprintf(&promptText, "  - %s: %d listings, %d vacant\n", c.County, c.Count, c.Vacant)
		}
	}

	cutoff := now.AddDate(0, 0, -staleDays)
	var stale []models.Listing
	for _, l := range p.listings {
		if l.IsVacant && l.UpdatedAt.Before(cutoff) {
			stale = append(stale, l)
		}
	}
	if len(stale) > 0 {
		fmt.Fprintf(&promptText, "\nVacant for more than %d days:\n", staleDays)
		for _, l := range stale {
			fmt.Fprintf(&promptText, "  - %s (%s, KES %d)\n", l.Title, l.SubRegion, l.Price())
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. An assessment of occupancy across counties")
	promptText.WriteString("\n2. Pricing suggestions for long-vacant listings")
	promptText.WriteString("\n3. Which listings to promote this week")

	return userPrompt(fmt.Sprintf("Portfolio review for: %s", p.business), promptText.String()), nil
}

func (h *PromptHandlers) getLeadFollowUpPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	tenant, l, err := h.listing(ctx, args)
	if err != nil {
		return nil, err
	}

	attempts, err := h.leads.Load(ctx, tenant, l.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Please suggest follow-ups for the people who asked about this listing:\n\n")
	writeListing(&promptText, l)

	if len(attempts) == 0 {
		promptText.WriteString("\nNobody has contacted us about this listing yet.\n")
		promptText.WriteString("\nPlease suggest how to attract enquiries.")
		return userPrompt(fmt.Sprintf("Lead follow-up for: %s", l.Title), promptText.String()), nil
	}

	fmt.Fprintf(&promptText, "\nLeads (%d, newest first):\n", len(attempts))
	for _, a := range attempts {
		who := a.ClientName
		if who == "" {
			who = "Unknown"
		}
		fmt.Fprintf(&promptText, "  - %s via %s on %s", who, a.ContactType, a.Timestamp.Format("2006-01-02"))
		if a.ClientPhone != "" {
			fmt.Fprintf(&promptText, ", phone %s", a.ClientPhone)
		}
		if a.ClientEmail != "" {
			fmt.Fprintf(&promptText, ", email %s", a.ClientEmail)
		}
		promptText.WriteString("\n")
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. Which leads to contact first and why")
	promptText.WriteString("\n2. A short follow-up message for each, suited to how they reached out")

	return userPrompt(fmt.Sprintf("Lead follow-up for: %s", l.Title), promptText.String()), nil
}

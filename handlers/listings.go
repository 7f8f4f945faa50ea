// ABOUTME: Listing MCP tool handlers
// ABOUTME: Implements list, create, update, delete, toggle_vacancy and portfolio_stats tools
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/listings"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/upload"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var ErrNotSignedIn = errors.New("not signed in: run 'rentdesk signin' first")

// currentTenant resolves the signed-in identity's id.
func currentTenant(ctx context.Context, svc identity.Service) (string, error) {
	user, err := svc.Current(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	if user == nil {
		return "", ErrNotSignedIn
	}
	return user.ID, nil
}

type ListingHandlers struct {
	repo     *listings.Repository
	uploads  *upload.Pipeline
	identity identity.Service
}

func NewListingHandlers(repo *listings.Repository, uploads *upload.Pipeline, svc identity.Service) *ListingHandlers {
	return &ListingHandlers{repo: repo, uploads: uploads, identity: svc}
}

type ListingOutput struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	PropertyType     string   `json:"property_type"`
	AvailabilityType string   `json:"availability_type"`
	SalePrice        int64    `json:"sale_price,omitempty"`
	RentPrice        int64    `json:"rent_price,omitempty"`
	Bedrooms         int      `json:"bedrooms"`
	Town             string   `json:"town"`
	County           string   `json:"county"`
	SubCounty        string   `json:"sub_county"`
	Images           []string `json:"images"`
	IsVacant         bool     `json:"is_vacant"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

type StatsOutput struct {
	Total    int `json:"total"`
	Vacant   int `json:"vacant"`
	Occupied int `json:"occupied"`
	ForSale  int `json:"for_sale"`
}

func listingToOutput(l models.Listing) ListingOutput {
	images := make([]string, len(l.Images))
	for i, img := range l.Images {
		images[i] = img.URL
	}
	return ListingOutput{
		ID:               l.ID,
		Title:            l.Title,
		Description:      l.Description,
		PropertyType:     l.PropertyType,
		AvailabilityType: l.AvailabilityType,
		SalePrice:        l.SalePrice,
		RentPrice:        l.RentPrice,
		Bedrooms:         l.Bedrooms,
		Town:             l.Town,
		County:           l.Region,
		SubCounty:        l.SubRegion,
		Images:           images,
		IsVacant:         l.IsVacant,
		CreatedAt:        l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        l.UpdatedAt.Format(time.RFC3339),
	}
}

func statsToOutput(s models.PortfolioStats) StatsOutput {
	return StatsOutput{Total: s.Total, Vacant: s.Vacant, Occupied: s.Occupied, ForSale: s.ForSale}
}

type ListListingsInput struct {
	Availability string `json:"availability,omitempty" jsonschema:"Filter by availability: For Sale or For Rent"`
	VacantOnly   bool   `json:"vacant_only,omitempty" jsonschema:"Only return vacant listings"`
}

type ListListingsOutput struct {
	Listings []ListingOutput `json:"listings"`
	Stats    StatsOutput     `json:"stats"`
}

func (h *ListingHandlers) ListListings(ctx context.Context, request *mcp.CallToolRequest, input ListListingsInput) (*mcp.CallToolResult, ListListingsOutput, error) {
	tenant, err := currentTenant(ctx, h.identity)
	if err != nil {
		return nil, ListListingsOutput{}, err
	}

	all, err := h.repo.LoadAll(ctx, tenant)
	if err != nil {
		return nil, ListListingsOutput{}, err
	}

	out := ListListingsOutput{Listings: []ListingOutput{}, Stats: statsToOutput(h.repo.Stats())}
	for _, l := range all {
		if input.Availability != "" && l.AvailabilityType != input.Availability {
			continue
		}
		if input.VacantOnly && !l.IsVacant {
			continue
		}
		out.Listings = append(out.Listings, listingToOutput(l))
	}
	return nil, out, nil
}

type CreateListingInput struct {
	Title            string   `json:"title" jsonschema:"Listing title (required)"`
	Description      string   `json:"description" jsonschema:"Listing description (required)"`
	PropertyType     string   `json:"property_type" jsonschema:"Apartment, Mansion, Townhouse, Bungalow, Studio, Bedsitter, Land or Commercial"`
	AvailabilityType string   `json:"availability_type" jsonschema:"For Sale or For Rent"`
	SalePrice        int64    `json:"sale_price,omitempty" jsonschema:"Sale price, required when For Sale"`
	RentPrice        int64    `json:"rent_price,omitempty" jsonschema:"Monthly rent, required when For Rent"`
	Bedrooms         int      `json:"bedrooms" jsonschema:"Number of bedrooms"`
	Town             string   `json:"town" jsonschema:"Town or estate"`
	County           string   `json:"county" jsonschema:"County name"`
	SubCounty        string   `json:"sub_county" jsonschema:"Constituency within the county"`
	ImagePaths       []string `json:"image_paths" jsonschema:"Local image files to upload, in display order"`
}

func (h *ListingHandlers) CreateListing(ctx context.Context, request *mcp.CallToolRequest, input CreateListingInput) (*mcp.CallToolResult, ListingOutput, error) {
	tenant, err := currentTenant(ctx, h.identity)
	if err != nil {
		return nil, ListingOutput{}, err
	}

	images, err := h.pendingImages(input.ImagePaths)
	if err != nil {
		return nil, ListingOutput{}, err
	}

	listing, err := h.repo.Create(ctx, tenant, listings.Draft{
		Title:            input.Title,
		Description:      input.Description,
		PropertyType:     input.PropertyType,
		AvailabilityType: input.AvailabilityType,
		SalePrice:        input.SalePrice,
		RentPrice:        input.RentPrice,
		Bedrooms:         input.Bedrooms,
		Town:             input.Town,
		Region:           input.County,
		SubRegion:        input.SubCounty,
		Images:           images,
	})
	if err != nil {
		return nil, ListingOutput{}, err
	}
	return nil, listingToOutput(*listing), nil
}

type UpdateListingInput struct {
	ID               string   `json:"id" jsonschema:"Listing ID (required)"`
	Title            string   `json:"title,omitempty" jsonschema:"New title"`
	Description      string   `json:"description,omitempty" jsonschema:"New description"`
	PropertyType     string   `json:"property_type,omitempty" jsonschema:"New property type"`
	AvailabilityType string   `json:"availability_type,omitempty" jsonschema:"For Sale or For Rent"`
	SalePrice        int64    `json:"sale_price,omitempty" jsonschema:"New sale price"`
	RentPrice        int64    `json:"rent_price,omitempty" jsonschema:"New rent"`
	Bedrooms         int      `json:"bedrooms,omitempty" jsonschema:"New bedroom count"`
	Town             string   `json:"town,omitempty" jsonschema:"New town"`
	County           string   `json:"county,omitempty" jsonschema:"New county (requires sub_county)"`
	SubCounty        string   `json:"sub_county,omitempty" jsonschema:"New constituency"`
	AddImagePaths    []string `json:"add_image_paths,omitempty" jsonschema:"Local image files appended after existing images"`
	RemoveImageURLs  []string `json:"remove_image_urls,omitempty" jsonschema:"Existing image URLs to drop"`
}

func (h *ListingHandlers) UpdateListing(ctx context.Context, request *mcp.CallToolRequest, input UpdateListingInput) (*mcp.CallToolResult, ListingOutput, error) {
	if input.ID == "" {
		return nil, ListingOutput{}, fmt.Errorf("id is required")
	}
	tenant, err := currentTenant(ctx, h.identity)
	if err != nil {
		return nil, ListingOutput{}, err
	}

	current, ok := h.repo.Get(input.ID)
	if !ok {
		if _, err := h.repo.LoadAll(ctx, tenant); err != nil {
			return nil, ListingOutput{}, err
		}
		if current, ok = h.repo.Get(input.ID); !ok {
			return nil, ListingOutput{}, fmt.Errorf("listing %s: %w", input.ID, models.ErrNotFound)
		}
	}

	draft := listings.DraftFromListing(current)
	applyUpdate(&draft, input)

	if len(input.RemoveImageURLs) > 0 {
		drop := make(map[string]bool, len(input.RemoveImageURLs))
		for _, u := range input.RemoveImageURLs {
			drop[u] = true
		}
		kept := draft.Images[:0]
		for _, img := range draft.Images {
			if p, ok := img.(models.PersistedImage); ok && drop[p.URL] {
				continue
			}
			kept = append(kept, img)
		}
		draft.Images = kept
	}

	added, err := h.pendingImages(input.AddImagePaths)
	if err != nil {
		return nil, ListingOutput{}, err
	}
	draft.Images = append(draft.Images, added...)

	listing, err := h.repo.Update(ctx, tenant, input.ID, draft)
	if err != nil {
		return nil, ListingOutput{}, err
	}
	return nil, listingToOutput(*listing), nil
}

func applyUpdate(d *listings.Draft, in UpdateListingInput) {
	if in.Title != "" {
		d.Title = in.Title
	}
	if in.Description != "" {
		d.Description = in.Description
	}
	if in.PropertyType != "" {
		d.PropertyType = in.PropertyType
	}
	if in.AvailabilityType != "" {
		d.AvailabilityType = in.AvailabilityType
	}
	if in.SalePrice != 0 {
		d.SalePrice = in.SalePrice
	}
	if in.RentPrice != 0 {
		d.RentPrice = in.RentPrice
	}
	if in.Bedrooms != 0 {
		d.Bedrooms = in.Bedrooms
	}
	if in.Town != "" {
		d.Town = in.Town
	}
	if in.County != "" {
		// a new county never keeps the old constituency
		d.Region = in.County
		d.SubRegion = ""
	}
	if in.SubCounty != "" {
		d.SubRegion = in.SubCounty
	}
}

func (h *ListingHandlers) pendingImages(paths []string) ([]models.ListingImage, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	files, err := upload.LoadFiles(paths)
	if err != nil {
		return nil, err
	}
	pending, err := h.uploads.Prepare(files)
	if err != nil {
		return nil, err
	}
	images := make([]models.ListingImage, len(pending))
	for i, p := range pending {
		images[i] = p
	}
	return images, nil
}

type ListingIDInput struct {
	ID string `json:"id" jsonschema:"Listing ID (required)"`
}

type DeleteListingOutput struct {
	ID      string      `json:"id"`
	Deleted bool        `json:"deleted"`
	Stats   StatsOutput `json:"stats"`
}

func (h *ListingHandlers) DeleteListing(ctx context.Context, request *mcp.CallToolRequest, input ListingIDInput) (*mcp.CallToolResult, DeleteListingOutput, error) {
	if input.ID == "" {
		return nil, DeleteListingOutput{}, fmt.Errorf("id is required")
	}
	tenant, err := currentTenant(ctx, h.identity)
	if err != nil {
		return nil, DeleteListingOutput{}, err
	}

	if err := h.repo.Delete(ctx, tenant, input.ID); err != nil {
		return nil, DeleteListingOutput{}, err
	}
	return nil, DeleteListingOutput{ID: input.ID, Deleted: true, Stats: statsToOutput(h.repo.Stats())}, nil
}

func (h *ListingHandlers) ToggleVacancy(ctx context.Context, request *mcp.CallToolRequest, input ListingIDInput) (*mcp.CallToolResult, ListingOutput, error) {
	if input.ID == "" {
		return nil, ListingOutput{}, fmt.Errorf("id is required")
	}
	tenant, err := currentTenant(ctx, h.identity)
	if err != nil {
		return nil, ListingOutput{}, err
	}

	listing, err := h.repo.ToggleVacancy(ctx, tenant, input.ID)
	if err != nil {
		return nil, ListingOutput{}, err
	}
	return nil, listingToOutput(*listing), nil
}

type PortfolioStatsInput struct{}

func (h *ListingHandlers) PortfolioStats(ctx context.Context, request *mcp.CallToolRequest, input PortfolioStatsInput) (*mcp.CallToolResult, StatsOutput, error) {
	tenant, err := currentTenant(ctx, h.identity)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	if _, err := h.repo.LoadAll(ctx, tenant); err != nil {
		return nil, StatsOutput{}, err
	}
	return nil, statsToOutput(h.repo.Stats()), nil
}

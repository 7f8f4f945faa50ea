// ABOUTME: MCP server subcommand
// ABOUTME: Exposes listing, lead, region and viz tools plus prompts and resources over stdio
package cli

import (
	"context"

	"github.com/harperreed/rentdesk/handlers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(app *App, version string) error {
	app.Logger.Info("starting rentdesk MCP server")

	listingHandlers := handlers.NewListingHandlers(app.Listings, app.Uploads, app.Identity)
	leadHandlers := handlers.NewLeadHandlers(app.Leads, app.Identity)
	regionHandlers := handlers.NewRegionHandlers(app.Taxonomy)
	vizHandlers := handlers.NewVizHandlers(app.Listings, app.Leads, app.Profiles, app.Identity)
	promptHandlers := handlers.NewPromptHandlers(app.Listings, app.Leads, app.Profiles, app.Identity)
	resourceHandlers := handlers.NewResourceHandlers(app.Listings, app.Leads, app.Taxonomy, app.Identity)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "rentdesk",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_listings",
		Description: "List the signed-in business's property listings with portfolio stats",
	}, listingHandlers.ListListings)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_listing",
		Description: "Create a property listing, uploading its images from local files",
	}, listingHandlers.CreateListing)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_listing",
		Description: "Update a listing's fields, append new images or drop existing ones",
	}, listingHandlers.UpdateListing)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_listing",
		Description: "Delete a listing",
	}, listingHandlers.DeleteListing)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "toggle_vacancy",
		Description: "Flip a listing between vacant and occupied",
	}, listingHandlers.ToggleVacancy)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "portfolio_stats",
		Description: "Count total, vacant, occupied and for-sale listings",
	}, listingHandlers.PortfolioStats)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_leads",
		Description: "List contact attempts for a listing, newest first",
	}, leadHandlers.ListLeads)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_regions",
		Description: "List Kenyan counties, or the constituencies of one county",
	}, regionHandlers.ListRegions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "portfolio_graph",
		Description: "Generate a GraphViz graph of listings grouped by county and constituency",
	}, vizHandlers.GenerateGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "portfolio_dashboard",
		Description: "Render a text dashboard of rent roll, vacancies and recent activity",
	}, vizHandlers.Dashboard)

	for _, prompt := range handlers.Prompts() {
		server.AddPrompt(prompt, promptHandlers.GetPrompt)
	}

	server.AddResource(&mcp.Resource{
		URI:         "rentdesk://listings",
		Name:        "listings",
		Description: "All listings of the signed-in business",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "rentdesk://listings/{id}",
		Name:        "listing",
		Description: "One listing with its leads",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)
	server.AddResource(&mcp.Resource{
		URI:         "rentdesk://stats",
		Name:        "stats",
		Description: "Portfolio stats",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)
	server.AddResource(&mcp.Resource{
		URI:         "rentdesk://regions",
		Name:        "regions",
		Description: "Kenyan counties and their constituencies",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	ctx := context.Background()
	return server.Run(ctx, &mcp.StdioTransport{})
}

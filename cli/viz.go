// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and portfolio graph generation commands
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/viz"
)

// portfolio loads the signed-in tenant's business name and listings.
func portfolio(ctx context.Context, app *App) (string, []models.Listing, error) {
	tenant, err := app.Tenant(ctx)
	if err != nil {
		return "", nil, err
	}

	business := "RentDesk"
	profile, err := app.Profiles.Load(ctx, tenant)
	if err != nil {
		return "", nil, err
	}
	if profile != nil && profile.BusinessName != "" {
		business = profile.BusinessName
	}

	all, err := app.Listings.LoadAll(ctx, tenant)
	if err != nil {
		return "", nil, err
	}
	return business, all, nil
}

// VizGraphCommand generates the county/constituency portfolio graph.
func VizGraphCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("viz graph", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	business, all, err := portfolio(context.Background(), app)
	if err != nil {
		return err
	}

	dot, err := viz.NewGraphGenerator().GeneratePortfolioGraph(business, all)
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}

	fmt.Println(dot)
	return nil
}

// VizDashboardCommand prints the portfolio dashboard. --leads also loads
// each listing's contact attempts.
func VizDashboardCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("viz dashboard", flag.ExitOnError)
	withLeads := fs.Bool("leads", false, "Load leads to flag listings nobody has asked about")
	_ = fs.Parse(args)

	ctx := context.Background()
	business, all, err := portfolio(ctx, app)
	if err != nil {
		return err
	}

	var leadCounts map[string]int
	if *withLeads {
		tenant, err := app.Tenant(ctx)
		if err != nil {
			return err
		}
		leadCounts = make(map[string]int, len(all))
		for _, l := range all {
			attempts, err := app.Leads.Load(ctx, tenant, l.ID)
			if err != nil {
				return fmt.Errorf("failed to load leads for %s: %w", l.Title, err)
			}
			leadCounts[l.ID] = len(attempts)
		}
	}

	stats := viz.GenerateDashboardStats(all, leadCounts, time.Now())
	fmt.Print(viz.RenderDashboard(business, stats))

	return nil
}

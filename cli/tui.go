// ABOUTME: Launches the full-screen terminal dashboard
// ABOUTME: Hands the App's services to the bubbletea program
package cli

import (
	"flag"

	"github.com/harperreed/rentdesk/tui"
)

// TUICommand runs the interactive dashboard until the user quits.
func TUICommand(app *App, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "Latitude used by the signup wizard instead of IP lookup")
	lon := fs.Float64("lon", 0, "Longitude used by the signup wizard instead of IP lookup")
	_ = fs.Parse(args)

	fixed, err := fixedCoordinates(fs)
	if err != nil {
		return err
	}

	return tui.Run(tui.Deps{
		Identity: app.Identity,
		Profiles: app.Profiles,
		Listings: app.Listings,
		Leads:    app.Leads,
		Store:    app.Store,
		Locator:  app.Locator(*lat, *lon, fixed),
		Taxonomy: app.Taxonomy,
		Logger:   app.Logger.WithPrefix("tui"),
	})
}

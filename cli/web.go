// ABOUTME: Starts the HTML dashboard server
// ABOUTME: Serves listings, leads, the portfolio graph and stored images
package cli

import (
	"flag"
	"fmt"
	"net"
	"strconv"

	"github.com/harperreed/rentdesk/web"
)

func WebCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	host := fs.String("host", "127.0.0.1", "Interface to listen on")
	port := fs.Int("port", app.Config.WebPort, "Port to listen on")
	_ = fs.Parse(args)

	server, err := web.NewServer(web.Deps{
		Identity: app.Identity,
		Profiles: app.Profiles,
		Listings: app.Listings,
		Leads:    app.Leads,
		Blobs:    app.Blobs,
		Logger:   app.Logger.WithPrefix("web"),
	})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	return server.Start(net.JoinHostPort(*host, strconv.Itoa(*port)))
}

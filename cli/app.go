// ABOUTME: Wires configuration, stores and services into one App for the commands
// ABOUTME: Chooses the Charm or SQLite document backend and resolves the signed-in tenant
package cli

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/harperreed/rentdesk/blob"
	"github.com/harperreed/rentdesk/charm"
	"github.com/harperreed/rentdesk/config"
	"github.com/harperreed/rentdesk/db"
	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/geo"
	"github.com/harperreed/rentdesk/handlers"
	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/leads"
	"github.com/harperreed/rentdesk/listings"
	"github.com/harperreed/rentdesk/session"
	"github.com/harperreed/rentdesk/taxonomy"
	"github.com/harperreed/rentdesk/upload"
)

var ErrNotSignedIn = handlers.ErrNotSignedIn

// App holds every long-lived dependency a command may need.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	DB       *sql.DB
	Store    docstore.Store
	Blobs    *blob.BadgerStore
	Uploads  *upload.Pipeline
	Listings *listings.Repository
	Leads    *leads.Loader
	Identity *identity.Local
	Profiles *session.ProfileLoader
	Taxonomy *taxonomy.Taxonomy
}

// OpenApp opens the account database, the configured document store and
// the blob store. dbPath overrides the configured database path when set.
func OpenApp(cfg *config.Config, dbPath string) (*App, error) {
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	logger := cfg.NewLogger(os.Stderr)

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	var store docstore.Store
	switch cfg.Backend {
	case config.BackendSQLite:
		store = db.NewDocumentStore(database)
	default:
		client, err := charm.GetClient()
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to connect to charm: %w", err)
		}
		store = charm.NewDocStore(client)
	}

	blobs, err := blob.Open(cfg.BlobDir, cfg.BlobBaseURL)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	tax := taxonomy.Default()
	uploads := upload.New(blobs, logger.WithPrefix("upload"))

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       database,
		Store:    store,
		Blobs:    blobs,
		Uploads:  uploads,
		Listings: listings.New(store, uploads, tax, logger.WithPrefix("listings")),
		Leads:    leads.New(store, logger.WithPrefix("leads")),
		Identity: identity.NewLocal(database, logger.WithPrefix("identity")),
		Profiles: session.NewProfileLoader(store, logger.WithPrefix("session")),
		Taxonomy: tax,
	}, nil
}

func (a *App) Close() error {
	blobErr := a.Blobs.Close()
	if err := a.DB.Close(); err != nil {
		return err
	}
	return blobErr
}

// Tenant returns the signed-in identity's id.
func (a *App) Tenant(ctx context.Context) (string, error) {
	user, err := a.Identity.Current(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	if user == nil {
		return "", ErrNotSignedIn
	}
	return user.ID, nil
}

// Locator returns fixed coordinates when both are given, else the IP locator.
func (a *App) Locator(lat, lon float64, fixed bool) geo.Locator {
	if fixed {
		return geo.Static{Coords: geo.Coordinates{Latitude: lat, Longitude: lon}}
	}
	return geo.NewIPLocator(a.Config.GeoEndpoint)
}

// fixedCoordinates reports whether --lat and --lon were both passed. Passing
// only one is an error.
func fixedCoordinates(fs *flag.FlagSet) (bool, error) {
	var lat, lon bool
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			lat = true
		case "lon":
			lon = true
		}
	})
	if lat != lon {
		return false, errors.New("--lat and --lon must be given together")
	}
	return lat, nil
}

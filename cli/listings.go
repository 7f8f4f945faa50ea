// ABOUTME: Listing CLI commands
// ABOUTME: Human-friendly commands for adding, listing, updating and deleting listings
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/rentdesk/listings"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/upload"
)

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// ListingsCommand dispatches "rentdesk listings <subcommand>".
func ListingsCommand(app *App, args []string) error {
	if len(args) == 0 {
		return ListListingsCommand(app, nil)
	}
	switch args[0] {
	case "add":
		return AddListingCommand(app, args[1:])
	case "list":
		return ListListingsCommand(app, args[1:])
	case "update":
		return UpdateListingCommand(app, args[1:])
	case "delete":
		return DeleteListingCommand(app, args[1:])
	case "toggle":
		return ToggleVacancyCommand(app, args[1:])
	case "stats":
		return StatsCommand(app, args[1:])
	default:
		return fmt.Errorf("unknown listings command: %s", args[0])
	}
}

type listingFlags struct {
	title, description, propertyType, availability *string
	salePrice, rentPrice                           *int64
	bedrooms                                       *int
	town, county, subCounty                        *string
	images                                         stringList
}

func bindListingFlags(fs *flag.FlagSet) *listingFlags {
	lf := &listingFlags{
		title:        fs.String("title", "", "Listing title"),
		description:  fs.String("description", "", "Description"),
		propertyType: fs.String("type", "", "Property type ("+strings.Join(models.PropertyTypes, ", ")+")"),
		availability: fs.String("availability", "", "For Sale or For Rent"),
		salePrice:    fs.Int64("sale-price", 0, "Sale price (For Sale)"),
		rentPrice:    fs.Int64("rent-price", 0, "Monthly rent (For Rent)"),
		bedrooms:     fs.Int("bedrooms", 0, "Number of bedrooms"),
		town:         fs.String("town", "", "Town or estate"),
		county:       fs.String("county", "", "County"),
		subCounty:    fs.String("sub-county", "", "Constituency within the county"),
	}
	fs.Var(&lf.images, "image", "Image file to upload (repeatable, in display order)")
	return lf
}

func pendingImages(app *App, paths []string) ([]models.ListingImage, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	files, err := upload.LoadFiles(paths)
	if err != nil {
		return nil, err
	}
	pending, err := app.Uploads.Prepare(files)
	if err != nil {
		return nil, err
	}
	images := make([]models.ListingImage, len(pending))
	for i, p := range pending {
		images[i] = p
	}
	return images, nil
}

// AddListingCommand creates a listing with its images.
func AddListingCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("listings add", flag.ExitOnError)
	lf := bindListingFlags(fs)
	_ = fs.Parse(args)

	ctx := context.Background()
	tenant, err := app.Tenant(ctx)
	if err != nil {
		return err
	}

	images, err := pendingImages(app, lf.images)
	if err != nil {
		return err
	}

	listing, err := app.Listings.Create(ctx, tenant, listings.Draft{
		Title:            *lf.title,
		Description:      *lf.description,
		PropertyType:     *lf.propertyType,
		AvailabilityType: *lf.availability,
		SalePrice:        *lf.salePrice,
		RentPrice:        *lf.rentPrice,
		Bedrooms:         *lf.bedrooms,
		Town:             *lf.town,
		Region:           *lf.county,
		SubRegion:        *lf.subCounty,
		Images:           images,
	})
	if err != nil {
		printValidation(err)
		return fmt.Errorf("failed to create listing: %w", err)
	}

	fmt.Printf("✓ Listing created: %s (ID: %s)\n", listing.Title, listing.ID)
	fmt.Printf("  %s, %s\n", listing.PropertyType, listing.AvailabilityType)
	fmt.Printf("  Price: KES %d\n", listing.Price())
	fmt.Printf("  Images: %d\n", len(listing.Images))
	return nil
}

// ListListingsCommand prints the tenant's listings and portfolio stats.
func ListListingsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("listings list", flag.ExitOnError)
	availability := fs.String("availability", "", "Filter by For Sale or For Rent")
	vacant := fs.Bool("vacant", false, "Only vacant listings")
	_ = fs.Parse(args)

	ctx := context.Background()
	tenant, err := app.Tenant(ctx)
	if err != nil {
		return err
	}

	all, err := app.Listings.LoadAll(ctx, tenant)
	if err != nil {
		return err
	}

	var shown []models.Listing
	for _, l := range all {
		if *availability != "" && l.AvailabilityType != *availability {
			continue
		}
		if *vacant && !l.IsVacant {
			continue
		}
		shown = append(shown, l)
	}

	if len(shown) == 0 {
		fmt.Println("No listings found")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "TITLE\tTYPE\tAVAILABILITY\tPRICE\tLOCATION\tSTATUS\tID")
		_, _ = fmt.Fprintln(w, "-----\t----\t------------\t-----\t--------\t------\t--")
		for _, l := range shown {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s, %s\t%s\t%s\n",
				l.Title, l.PropertyType, l.AvailabilityType, l.Price(),
				l.Town, l.SubRegion, vacancyLabel(l.IsVacant), l.ID)
		}
		_ = w.Flush()
	}

	printStats(app.Listings.Stats())
	return nil
}

func vacancyLabel(vacant bool) string {
	if vacant {
		return "vacant"
	}
	return "occupied"
}

func printStats(s models.PortfolioStats) {
	fmt.Printf("\nTotal: %d  Vacant: %d  Occupied: %d  For sale: %d\n", s.Total, s.Vacant, s.Occupied, s.ForSale)
}

// UpdateListingCommand changes the given fields of a listing. Images given
// with --image are appended; --remove-image drops an existing URL.
func UpdateListingCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("listings update", flag.ExitOnError)
	lf := bindListingFlags(fs)
	var remove stringList
	fs.Var(&remove, "remove-image", "Existing image URL to drop (repeatable)")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("listing ID is required")
	}
	id := fs.Arg(0)

	ctx := context.Background()
	tenant, err := app.Tenant(ctx)
	if err != nil {
		return err
	}

	if _, err := app.Listings.LoadAll(ctx, tenant); err != nil {
		return err
	}
	current, ok := app.Listings.Get(id)
	if !ok {
		return fmt.Errorf("listing %s: %w", id, models.ErrNotFound)
	}

	draft := listings.DraftFromListing(current)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			draft.Title = *lf.title
		case "description":
			draft.Description = *lf.description
		case "type":
			draft.PropertyType = *lf.propertyType
		case "availability":
			draft.AvailabilityType = *lf.availability
		case "sale-price":
			draft.SalePrice = *lf.salePrice
		case "rent-price":
			draft.RentPrice = *lf.rentPrice
		case "bedrooms":
			draft.Bedrooms = *lf.bedrooms
		case "town":
			draft.Town = *lf.town
		case "county":
			draft.Region = *lf.county
			draft.SubRegion = *lf.subCounty
		case "sub-county":
			draft.SubRegion = *lf.subCounty
		}
	})

	if len(remove) > 0 {
		kept := make([]models.ListingImage, 0, len(draft.Images))
		for _, img := range draft.Images {
			if p, ok := img.(models.PersistedImage); ok && contains(remove, p.URL) {
				continue
			}
			kept = append(kept, img)
		}
		draft.Images = kept
	}

	added, err := pendingImages(app, lf.images)
	if err != nil {
		return err
	}
	draft.Images = append(draft.Images, added...)

	listing, err := app.Listings.Update(ctx, tenant, id, draft)
	if err != nil {
		printValidation(err)
		return fmt.Errorf("failed to update listing: %w", err)
	}

	fmt.Printf("✓ Listing updated: %s (ID: %s)\n", listing.Title, listing.ID)
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func DeleteListingCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("listings delete", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("listing ID is required")
	}

	ctx := context.Background()
	tenant, err := app.Tenant(ctx)
	if err != nil {
		return err
	}

	if err := app.Listings.Delete(ctx, tenant, fs.Arg(0)); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	fmt.Printf("✓ Listing deleted: %s\n", fs.Arg(0))
	return nil
}

func ToggleVacancyCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("listings toggle", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("listing ID is required")
	}

	ctx := context.Background()
	tenant, err := app.Tenant(ctx)
	if err != nil {
		return err
	}

	listing, err := app.Listings.ToggleVacancy(ctx, tenant, fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to toggle vacancy: %w", err)
	}
	fmt.Printf("✓ %s is now %s\n", listing.Title, vacancyLabel(listing.IsVacant))
	return nil
}

func StatsCommand(app *App, args []string) error {
	ctx := context.Background()
	tenant, err := app.Tenant(ctx)
	if err != nil {
		return err
	}
	if _, err := app.Listings.LoadAll(ctx, tenant); err != nil {
		return err
	}
	printStats(app.Listings.Stats())
	return nil
}

func printValidation(err error) {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for field, msg := range verr.Fields {
		fmt.Printf("  %s: %s\n", field, msg)
	}
}

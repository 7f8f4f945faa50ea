// ABOUTME: Lead and region CLI commands
// ABOUTME: Shows contact attempts for a listing and browses the county taxonomy
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
)

// LeadsCommand lists contact attempts for one listing, newest first.
func LeadsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("leads", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("listing ID is required")
	}
	listingID := fs.Arg(0)

	ctx := context.Background()
	tenant, err := app.Tenant(ctx)
	if err != nil {
		return err
	}

	attempts, err := app.Leads.Load(ctx, tenant, listingID)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Println("No leads yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tTYPE\tNAME\tEMAIL\tPHONE")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t-----\t-----")
	for _, a := range attempts {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.Timestamp.Local().Format("2006-01-02 15:04"), a.ContactType,
			orDash(a.ClientName), orDash(a.ClientEmail), orDash(a.ClientPhone))
	}
	return w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// RegionsCommand lists counties, or the constituencies of one county.
func RegionsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("regions", flag.ExitOnError)
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		for _, name := range app.Taxonomy.Regions() {
			fmt.Println(name)
		}
		return nil
	}

	county := fs.Arg(0)
	if !app.Taxonomy.HasRegion(county) {
		return fmt.Errorf("unknown county: %s", county)
	}
	for _, name := range app.Taxonomy.SubRegionsOf(county) {
		fmt.Println(name)
	}
	return nil
}

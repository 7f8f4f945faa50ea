// ABOUTME: Entry point for the rentdesk CLI, MCP server, TUI and web dashboard
// ABOUTME: Routes to account, listing, lead, sync and visualization commands
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/rentdesk/charm"
	"github.com/harperreed/rentdesk/cli"
	"github.com/harperreed/rentdesk/config"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/rentdesk/rentdesk.db)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("rentdesk version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	// sync talks to the charm server directly and needs no App
	if command == "sync" {
		if err := charm.SyncCommand(commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}
	if command == "help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	app, err := cli.OpenApp(cfg, *dbPath)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer func() { _ = app.Close() }()

	if err := run(app, command, commandArgs); err != nil {
		_ = app.Close()
		log.Fatalf("Error: %v", err)
	}
}

func run(app *cli.App, command string, args []string) error {
	switch command {
	case "signup":
		return cli.SignupCommand(app, args)
	case "signin":
		return cli.SigninCommand(app, args)
	case "signout":
		return cli.SignoutCommand(app, args)
	case "whoami":
		return cli.WhoamiCommand(app, args)
	case "reset-password":
		return cli.ResetPasswordCommand(app, args)
	case "delete-account":
		return cli.DeleteAccountCommand(app, args)

	case "listings":
		return cli.ListingsCommand(app, args)
	case "leads":
		return cli.LeadsCommand(app, args)
	case "regions":
		return cli.RegionsCommand(app, args)

	case "mcp":
		return cli.MCPCommand(app, version)
	case "tui":
		return cli.TUICommand(app, args)
	case "web":
		return cli.WebCommand(app, args)

	case "viz":
		if len(args) == 0 {
			fmt.Println("Error: viz requires a subcommand (graph or dashboard)")
			printUsage()
			os.Exit(1)
		}
		switch args[0] {
		case "graph":
			return cli.VizGraphCommand(app, args[1:])
		case "dashboard":
			return cli.VizDashboardCommand(app, args[1:])
		default:
			fmt.Printf("Unknown viz command: %s\n\n", args[0])
			printUsage()
			os.Exit(1)
		}
	}

	fmt.Printf("Unknown command: %s\n\n", command)
	printUsage()
	os.Exit(1)
	return nil
}

func printUsage() {
	fmt.Printf(`rentdesk v%s - Property listing desk for Kenyan real-estate businesses

USAGE:
  rentdesk [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/rentdesk/rentdesk.db)

ACCOUNT COMMANDS:
  rentdesk signup           Register a business (runs the 3-step onboarding)
    --business <name>         Business name (required)
    --owner <name>            Owner name (required)
    --reg-number <no>         Business registration number
    --email <email>           Email address (required)
    --category <text>         Business category
    --phone <no>              Phone number (required)
    --whatsapp <no>           WhatsApp number (required)
    --id-number <no>          Kenyan ID number, used as the sign-in secret (required)
    --county <county>         County (required)
    --sub-county <name>       Sub-county within the county (required)
    --lat/--lon <deg>         Coordinates (default: looked up from your IP)

  rentdesk signin           Sign in
    --email <email>           Email address
    --secret <id-number>      ID number (prompted when omitted)

  rentdesk signout          Sign out
  rentdesk whoami           Show the signed-in business
  rentdesk reset-password   Request or complete a password reset
    --email <email>           Request a reset token
    --token <token>           Complete a reset with this token
    --secret <secret>         New secret

  rentdesk delete-account --confirm   Delete the business profile and account

LISTING COMMANDS:
  rentdesk listings add     Add a listing
    --title <title>           Title (required)
    --description <text>      Description (required)
    --type <type>             Apartment, Mansion, Townhouse, Bungalow, Studio,
                              Bedsitter, Land or Commercial
    --availability <a>        "For Rent" or "For Sale"
    --rent-price <kes>        Monthly rent in KES
    --sale-price <kes>        Sale price in KES
    --bedrooms <n>            Bedrooms
    --town <town>             Town or estate
    --county <county>         County
    --sub-county <name>       Sub-county
    --image <file>            Image file (repeatable, at least one)

  rentdesk listings list    List listings with portfolio stats
    --availability <a>        Filter by availability
    --vacant                  Only vacant listings

  rentdesk listings update [flags] <id>  Update a listing
    (same flags as add)
    --remove-image <url>      Remove an existing image (repeatable)
    Note: flags must come before the listing ID

  rentdesk listings delete <id>   Delete a listing
  rentdesk listings toggle <id>   Flip vacant/occupied
  rentdesk listings stats         Show portfolio stats

  rentdesk leads <listing-id>     Show contact attempts for a listing
  rentdesk regions [county]       List counties, or a county's sub-counties

INTERFACES:
  rentdesk mcp              Start MCP server (stdio)
  rentdesk tui              Start the terminal dashboard
    --lat/--lon <deg>         Coordinates for signup (default: IP lookup)
  rentdesk web              Start the web dashboard
    --host <addr>             Interface (default: 127.0.0.1)
    --port <n>                Port (default: from config, 8080)

VIZ COMMANDS:
  rentdesk viz graph        Portfolio graph by county and sub-county
    --output <file>           Output file (default: stdout)
  rentdesk viz dashboard    Text portfolio dashboard
    --leads                   Include lead counts per listing

SYNC COMMANDS:
  rentdesk sync status      Show charm sync status
  rentdesk sync now         Sync with the charm server
  rentdesk sync auto        Toggle auto-sync
    --enable / --disable
  rentdesk sync wipe --confirm   Wipe local charm data

EXAMPLES:
  # Register and sign in
  rentdesk signup --business "Acme Homes" --owner "Amina Baraka" \
    --email amina@acme.co.ke --phone 0712345678 --whatsapp 0712345678 \
    --id-number 23456789 --county Mombasa --sub-county Nyali

  # Add a rental
  rentdesk listings add --title "Garden flat" --description "Near the beach" \
    --type Apartment --availability "For Rent" --rent-price 45000 --bedrooms 2 \
    --town Nyali --county Mombasa --sub-county Nyali --image cover.jpg

  # Flip a listing to occupied
  rentdesk listings toggle 01hx...

`, version)
}

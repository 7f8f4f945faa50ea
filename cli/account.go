// ABOUTME: Account CLI commands
// ABOUTME: signup runs the onboarding wizard; signin, signout, whoami and password reset
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/onboarding"
	"golang.org/x/term"
)

// SignupCommand registers a business through the three wizard steps.
func SignupCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	business := fs.String("business", "", "Business name (required)")
	owner := fs.String("owner", "", "Owner name (required)")
	regNumber := fs.String("reg-number", "", "Business registration number")
	email := fs.String("email", "", "Email address (required)")
	phone := fs.String("phone", "", "Phone number (required)")
	whatsapp := fs.String("whatsapp", "", "WhatsApp number (default: same as --phone)")
	idNumber := fs.String("id-number", "", "Kenyan ID number, 7-8 digits; also your sign-in secret (required)")
	category := fs.String("category", "", "Business category")
	county := fs.String("county", "", "County (required)")
	subCounty := fs.String("sub-county", "", "Constituency within the county (required)")
	lat := fs.Float64("lat", 0, "Latitude (skips IP location when used with --lon)")
	lon := fs.Float64("lon", 0, "Longitude")
	_ = fs.Parse(args)

	fixed, err := fixedCoordinates(fs)
	if err != nil {
		return err
	}
	if *whatsapp == "" {
		*whatsapp = *phone
	}

	ctx := context.Background()
	wizard := onboarding.New(onboarding.Deps{
		Identity: app.Identity,
		Store:    app.Store,
		Locator:  app.Locator(*lat, *lon, fixed),
		Taxonomy: app.Taxonomy,
		Logger:   app.Logger.WithPrefix("onboarding"),
	})
	located := wizard.StartLocating(ctx)

	steps := []map[string]string{
		{
			onboarding.FieldBusinessName:       *business,
			onboarding.FieldOwnerName:          *owner,
			onboarding.FieldRegistrationNumber: *regNumber,
			onboarding.FieldEmail:              *email,
			onboarding.FieldCategory:           *category,
		},
		{
			onboarding.FieldPhoneNumber:    *phone,
			onboarding.FieldWhatsAppNumber: *whatsapp,
			onboarding.FieldIDNumber:       *idNumber,
		},
		{
			onboarding.FieldRegion:    *county,
			onboarding.FieldSubRegion: *subCounty,
		},
	}

	for i, fields := range steps {
		// region before sub-region, since selecting a region clears it
		if region, ok := fields[onboarding.FieldRegion]; ok {
			_ = wizard.SetField(onboarding.FieldRegion, region)
		}
		for name, value := range fields {
			if name == onboarding.FieldRegion {
				continue
			}
			if err := wizard.SetField(name, value); err != nil {
				return err
			}
		}
		if i < len(steps)-1 {
			if err := wizard.Next(); err != nil {
				printFieldErrors(err)
				return fmt.Errorf("signup stopped at %s", wizard.Step())
			}
		}
	}

	fmt.Println("Detecting location...")
	<-located
	if wizard.Location() == onboarding.LocationSuccess {
		f := wizard.Form()
		fmt.Printf("  Location: %s, %s\n", f.Latitude, f.Longitude)
	} else {
		fmt.Println("  Location unavailable, continuing without coordinates")
	}

	profile, err := wizard.Submit(ctx)
	if err != nil {
		var partial *models.PartialFailureError
		if errors.As(err, &partial) {
			fmt.Printf("Warning: account %s exists without a business profile\n", partial.IdentityID)
		}
		printFieldErrors(err)
		return fmt.Errorf("signup failed: %w", err)
	}

	fmt.Printf("✓ Registered: %s\n", profile.BusinessName)
	fmt.Printf("  Owner: %s\n", profile.OwnerName)
	fmt.Printf("  Location: %s, %s\n", profile.SubRegion, profile.Region)
	fmt.Printf("  ID: %s\n", profile.TenantID)
	return nil
}

func printFieldErrors(err error) {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	fmt.Println("Please fix:")
	for field, msg := range verr.Fields {
		fmt.Printf("  %s: %s\n", field, msg)
	}
}

// SigninCommand signs an identity in. The secret is prompted for when not
// given by flag.
func SigninCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("signin", flag.ExitOnError)
	email := fs.String("email", "", "Email address (required)")
	secret := fs.String("secret", "", "ID number (prompted when omitted)")
	_ = fs.Parse(args)

	if *email == "" {
		return fmt.Errorf("--email is required")
	}
	if *secret == "" {
		s, err := promptSecret("ID number: ")
		if err != nil {
			return err
		}
		*secret = s
	}

	ctx := context.Background()
	user, err := app.Identity.SignIn(ctx, *email, *secret)
	if err != nil {
		return err
	}

	profile, err := app.Profiles.Load(ctx, user.ID)
	if err != nil {
		fmt.Printf("✓ Signed in as %s (profile unavailable: %v)\n", user.Email, err)
		return nil
	}
	if profile == nil {
		fmt.Printf("✓ Signed in as %s (no business profile)\n", user.Email)
		return nil
	}
	fmt.Printf("✓ Signed in as %s for %s\n", user.Email, profile.BusinessName)
	return nil
}

func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func SignoutCommand(app *App, args []string) error {
	if err := app.Identity.SignOut(context.Background()); err != nil {
		return err
	}
	fmt.Println("✓ Signed out")
	return nil
}

// WhoamiCommand prints the signed-in identity and its business profile.
func WhoamiCommand(app *App, args []string) error {
	ctx := context.Background()
	user, err := app.Identity.Current(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Println("Not signed in")
		return nil
	}

	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("ID:    %s\n", user.ID)

	profile, err := app.Profiles.Load(ctx, user.ID)
	if err != nil {
		return err
	}
	if profile == nil {
		fmt.Println("No business profile")
		return nil
	}
	fmt.Printf("Business: %s\n", profile.BusinessName)
	fmt.Printf("Owner:    %s\n", profile.OwnerName)
	fmt.Printf("Phone:    %s (WhatsApp %s)\n", profile.PhoneNumber, profile.WhatsAppNumber)
	fmt.Printf("Location: %s, %s\n", profile.SubRegion, profile.Region)
	if profile.Latitude != "" {
		fmt.Printf("Coords:   %s, %s\n", profile.Latitude, profile.Longitude)
	}
	return nil
}

// ResetPasswordCommand issues a reset token, or consumes one with --token.
func ResetPasswordCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	email := fs.String("email", "", "Email address to send a reset to")
	token := fs.String("token", "", "Reset token to consume")
	secret := fs.String("secret", "", "New secret (prompted when omitted)")
	_ = fs.Parse(args)

	ctx := context.Background()
	if *token == "" {
		if *email == "" {
			return fmt.Errorf("--email or --token is required")
		}
		if err := app.Identity.SendPasswordReset(ctx, *email); err != nil {
			return err
		}
		fmt.Printf("✓ Password reset issued for %s (token written to the log)\n", *email)
		return nil
	}

	if *secret == "" {
		s, err := promptSecret("New secret: ")
		if err != nil {
			return err
		}
		*secret = s
	}
	if err := app.Identity.ResetPassword(ctx, *token, *secret); err != nil {
		return err
	}
	fmt.Println("✓ Password updated")
	return nil
}

// DeleteAccountCommand removes the signed-in identity and its profile.
func DeleteAccountCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("delete-account", flag.ExitOnError)
	confirm := fs.Bool("confirm", false, "Confirm deletion")
	_ = fs.Parse(args)

	if !*confirm {
		return fmt.Errorf("this permanently deletes your account; re-run with --confirm")
	}

	ctx := context.Background()
	tenant, err := app.Tenant(ctx)
	if err != nil {
		return err
	}
	if err := app.Store.Delete(ctx, docstore.ProfilePath(tenant)); err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to delete business profile: %w", err)
	}
	if err := app.Identity.DeleteAccount(ctx, tenant); err != nil {
		return err
	}
	fmt.Println("✓ Account deleted")
	return nil
}

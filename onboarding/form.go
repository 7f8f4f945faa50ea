// ABOUTME: Onboarding form fields and the per-step validation rules
// ABOUTME: ValidateStep is the only validator, used on Next and again on Submit
package onboarding

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/harperreed/rentdesk/taxonomy"
)

// Field names match the stored profile document.
const (
	FieldBusinessName       = "businessname"
	FieldOwnerName          = "ownersname"
	FieldRegistrationNumber = "businessregistrationnumber"
	FieldEmail              = "email"
	FieldPhoneNumber        = "phonenumber"
	FieldWhatsAppNumber     = "wphonenumber"
	FieldIDNumber           = "idnumber"
	FieldCategory           = "category"
	FieldLatitude           = "latitude"
	FieldLongitude          = "longitude"
	FieldRegion             = "selectedCounty"
	FieldSubRegion          = "subcounties"
)

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	phonePattern = regexp.MustCompile(`^[0-9+\-()]{10,15}$`)
	idPattern    = regexp.MustCompile(`^[0-9]{7,8}$`)
	whitespace   = regexp.MustCompile(`\s`)
)

// Form is the wizard's working copy of the business profile.
type Form struct {
	BusinessName       string
	OwnerName          string
	RegistrationNumber string
	Email              string
	PhoneNumber        string
	WhatsAppNumber     string
	IDNumber           string
	Category           string
	Latitude           string
	Longitude          string
	Region             string
	SubRegion          string
}

func (f *Form) field(name string) (*string, error) {
	switch name {
	case FieldBusinessName:
		return &f.BusinessName, nil
	case FieldOwnerName:
		return &f.OwnerName, nil
	case FieldRegistrationNumber:
		return &f.RegistrationNumber, nil
	case FieldEmail:
		return &f.Email, nil
	case FieldPhoneNumber:
		return &f.PhoneNumber, nil
	case FieldWhatsAppNumber:
		return &f.WhatsAppNumber, nil
	case FieldIDNumber:
		return &f.IDNumber, nil
	case FieldCategory:
		return &f.Category, nil
	case FieldLatitude:
		return &f.Latitude, nil
	case FieldLongitude:
		return &f.Longitude, nil
	case FieldRegion:
		return &f.Region, nil
	case FieldSubRegion:
		return &f.SubRegion, nil
	default:
		return nil, fmt.Errorf("unknown form field %q", name)
	}
}

// Get returns a field's value by document name.
func (f Form) Get(name string) (string, error) {
	p, err := f.field(name)
	if err != nil {
		return "", err
	}
	return *p, nil
}

func validPhone(s string) bool {
	return phonePattern.MatchString(whitespace.ReplaceAllString(s, ""))
}

// ValidateStep checks the fields owned by step and returns field errors.
// tax may be nil to skip the sub-region membership check.
func ValidateStep(step Step, f Form, tax *taxonomy.Taxonomy) map[string]string {
	errs := make(map[string]string)

	switch step {
	case StepBusinessInfo:
		if strings.TrimSpace(f.BusinessName) == "" {
			errs[FieldBusinessName] = "Business name is required"
		}
		if strings.TrimSpace(f.OwnerName) == "" {
			errs[FieldOwnerName] = "Owner name is required"
		}
		if strings.TrimSpace(f.Email) == "" {
			errs[FieldEmail] = "Email is required"
		} else if !emailPattern.MatchString(f.Email) {
			errs[FieldEmail] = "Please enter a valid email address"
		}

	case StepContactInfo:
		if strings.TrimSpace(f.PhoneNumber) == "" {
			errs[FieldPhoneNumber] = "Phone number is required"
		} else if !validPhone(f.PhoneNumber) {
			errs[FieldPhoneNumber] = "Please enter a valid phone number"
		}
		if strings.TrimSpace(f.WhatsAppNumber) == "" {
			errs[FieldWhatsAppNumber] = "WhatsApp number is required"
		} else if !validPhone(f.WhatsAppNumber) {
			errs[FieldWhatsAppNumber] = "Please enter a valid WhatsApp number"
		}
		if strings.TrimSpace(f.IDNumber) == "" {
			errs[FieldIDNumber] = "ID number is required"
		} else if !idPattern.MatchString(f.IDNumber) {
			errs[FieldIDNumber] = "Please enter a valid Kenyan ID number (7-8 digits)"
		}

	case StepLocationInfo:
		if f.Region == "" {
			errs[FieldRegion] = "County selection is required"
		}
		if f.SubRegion == "" {
			errs[FieldSubRegion] = "Sub-county selection is required"
		} else if tax != nil && f.Region != "" && !tax.Contains(f.Region, f.SubRegion) {
			errs[FieldSubRegion] = "Sub-county does not belong to the selected county"
		}
	}

	return errs
}

// ABOUTME: Listing drafts and their validation rules
// ABOUTME: Enforces required fields, the availability/price invariant and image presence
package listings

import (
	"strings"

	"github.com/harperreed/rentdesk/models"
	"github.com/harperreed/rentdesk/taxonomy"
)

// Draft is the editable form of a listing. Images mixes persisted URLs and
// pending files in display order.
type Draft struct {
	Title            string
	Description      string
	PropertyType     string
	AvailabilityType string
	SalePrice        int64
	RentPrice        int64
	Bedrooms         int
	Town             string
	Region           string
	SubRegion        string
	Images           []models.ListingImage
}

// DraftFromListing starts an edit from a stored listing.
func DraftFromListing(l models.Listing) Draft {
	images := make([]models.ListingImage, len(l.Images))
	for i, img := range l.Images {
		images[i] = img
	}
	return Draft{
		Title:            l.Title,
		Description:      l.Description,
		PropertyType:     l.PropertyType,
		AvailabilityType: l.AvailabilityType,
		SalePrice:        l.SalePrice,
		RentPrice:        l.RentPrice,
		Bedrooms:         l.Bedrooms,
		Town:             l.Town,
		Region:           l.Region,
		SubRegion:        l.SubRegion,
		Images:           images,
	}
}

// Normalize trims text fields and clears the price that does not apply to
// the availability type.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.PropertyType = strings.TrimSpace(d.PropertyType)
	d.AvailabilityType = strings.TrimSpace(d.AvailabilityType)
	d.Town = strings.TrimSpace(d.Town)
	d.Region = strings.TrimSpace(d.Region)
	d.SubRegion = strings.TrimSpace(d.SubRegion)

	switch d.AvailabilityType {
	case models.AvailabilityForSale:
		d.RentPrice = 0
	case models.AvailabilityForRent:
		d.SalePrice = 0
	}
	return d
}

// noBedrooms are property types that may be listed with zero bedrooms.
var noBedrooms = map[string]bool{
	models.PropertyLand:       true,
	models.PropertyCommercial: true,
}

// Validate returns a *models.ValidationError keyed by document field name,
// or nil. tax may be nil to skip the sub-region check.
func (d Draft) Validate(tax *taxonomy.Taxonomy) error {
	errs := make(map[string]string)

	if d.Title == "" {
		errs["title"] = "Title is required"
	}
	if d.Description == "" {
		errs["description"] = "Description is required"
	}
	if d.PropertyType == "" {
		errs["propertyType"] = "Property type is required"
	} else if !models.IsValidPropertyType(d.PropertyType) {
		errs["propertyType"] = "Unknown property type"
	}

	switch d.AvailabilityType {
	case models.AvailabilityForSale:
		if d.SalePrice <= 0 {
			errs["saleprice"] = "Sale price is required"
		}
		if d.RentPrice != 0 {
			errs["rentprice"] = "Rent price must be empty for a sale listing"
		}
	case models.AvailabilityForRent:
		if d.RentPrice <= 0 {
			errs["rentprice"] = "Rent price is required"
		}
		if d.SalePrice != 0 {
			errs["saleprice"] = "Sale price must be empty for a rental listing"
		}
	case "":
		errs["availabilityType"] = "Availability type is required"
	default:
		errs["availabilityType"] = "Availability type must be For Sale or For Rent"
	}

	if d.Bedrooms < 0 || (d.Bedrooms == 0 && !noBedrooms[d.PropertyType]) {
		errs["bedrooms"] = "Number of bedrooms is required"
	}
	if d.Town == "" {
		errs["town"] = "Town is required"
	}
	if d.Region == "" {
		errs["selectedCounty"] = "County selection is required"
	}
	if d.SubRegion == "" {
		errs["subcounties"] = "Sub-county selection is required"
	} else if tax != nil && d.Region != "" && !tax.Contains(d.Region, d.SubRegion) {
		errs["subcounties"] = "Sub-county does not belong to the selected county"
	}
	if len(d.Images) == 0 {
		errs["images"] = "At least one image is required"
	}

	return models.NewValidationError(errs)
}

// ABOUTME: Data models for tenant profiles, listings, images and leads
// ABOUTME: Defines BusinessProfile, Listing, the ListingImage variant and PortfolioStats
package models

import (
	"time"
)

// BusinessProfile is the tenant's onboarding record, stored at RealEstate/{tenantId}.
type BusinessProfile struct {
	TenantID           string    `json:"-"`
	BusinessName       string    `json:"businessname"`
	OwnerName          string    `json:"ownersname"`
	RegistrationNumber string    `json:"businessregistrationnumber,omitempty"`
	Email              string    `json:"email,omitempty"`
	PhoneNumber        string    `json:"phonenumber"`
	WhatsAppNumber     string    `json:"wphonenumber"`
	IDNumber           string    `json:"idnumber"`
	Category           string    `json:"category,omitempty"`
	Latitude           string    `json:"latitude"`
	Longitude          string    `json:"longitude"`
	Region             string    `json:"selectedCounty"`
	SubRegion          string    `json:"subcounties"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Listing is a single property record, stored at RealEstate/{tenantId}/properties/{id}.
type Listing struct {
	ID               string           `json:"-"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	PropertyType     string           `json:"propertyType"`
	AvailabilityType string           `json:"availabilityType"`
	SalePrice        int64            `json:"saleprice"`
	RentPrice        int64            `json:"rentprice"`
	Bedrooms         int              `json:"bedrooms"`
	Town             string           `json:"town"`
	Region           string           `json:"selectedCounty"`
	SubRegion        string           `json:"subcounties"`
	Images           []PersistedImage `json:"images"`
	IsVacant         bool             `json:"isVacant"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Price returns the price that is meaningful for the listing's availability type.
func (l *Listing) Price() int64 {
	if l.AvailabilityType == AvailabilityForRent {
		return l.RentPrice
	}
	return l.SalePrice
}

// ListingImage is either a PersistedImage or a PendingImage.
type ListingImage interface {
	isListingImage()
}

// PersistedImage is an image already resolved to a Blob Store URL.
type PersistedImage struct {
	URL string `json:"url"`
}

// PendingImage is a locally selected file that has not been uploaded yet.
type PendingImage struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"-"`
	PreviewURL  string `json:"-"`
}

func (PersistedImage) isListingImage() {}
func (PendingImage) isListingImage()   {}

// ContactAttempt is a lead recorded against a listing by the client-facing app.
type ContactAttempt struct {
	ID          string    `json:"-"`
	ListingID   string    `json:"-"`
	ClientName  string    `json:"clientName,omitempty"`
	ClientEmail string    `json:"clientEmail,omitempty"`
	ClientPhone string    `json:"clientPhone,omitempty"`
	ContactType string    `json:"contactType"`
	Timestamp   time.Time `json:"-"`
}

// PortfolioStats is derived from the in-memory listing set and never stored.
type PortfolioStats struct {
	Total    int `json:"total"`
	Vacant   int `json:"vacant"`
	Occupied int `json:"occupied"`
	ForSale  int `json:"forSale"`
}

// ComputeStats partitions listings by vacancy flag and counts the ones for sale.
func ComputeStats(listings []Listing) PortfolioStats {
	var stats PortfolioStats
	for i := range listings {
		stats.Total++
		if listings[i].IsVacant {
			stats.Vacant++
		} else {
			stats.Occupied++
		}
		if listings[i].AvailabilityType == AvailabilityForSale {
			stats.ForSale++
		}
	}
	return stats
}

// Availability types.
const (
	AvailabilityForSale = "For Sale"
	AvailabilityForRent = "For Rent"
)

// Property types.
const (
	PropertyApartment  = "Apartment"
	PropertyMansion    = "Mansion"
	PropertyTownhouse  = "Townhouse"
	PropertyBungalow   = "Bungalow"
	PropertyStudio     = "Studio"
	PropertyBedsitter  = "Bedsitter"
	PropertyLand       = "Land"
	PropertyCommercial = "Commercial"
)

// PropertyTypes lists the accepted property types in display order.
var PropertyTypes = []string{
	PropertyApartment,
	PropertyMansion,
	PropertyTownhouse,
	PropertyBungalow,
	PropertyStudio,
	PropertyBedsitter,
	PropertyLand,
	PropertyCommercial,
}

// IsValidPropertyType reports whether t is one of PropertyTypes.
func IsValidPropertyType(t string) bool {
	for _, p := range PropertyTypes {
		if p == t {
			return true
		}
	}
	return false
}

// Contact types for leads.
const (
	ContactTypeCall  = "call"
	ContactTypeEmail = "email"
)

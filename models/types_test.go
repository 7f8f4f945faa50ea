// ABOUTME: Tests for listing models, stats derivation and error types
// ABOUTME: Verifies the stats partition and error wrapping behaviour
package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatsPartition(t *testing.T) {
	listings := []Listing{
		{ID: "a", AvailabilityType: AvailabilityForSale, IsVacant: true},
		{ID: "b", AvailabilityType: AvailabilityForRent, IsVacant: false},
		{ID: "c", AvailabilityType: AvailabilityForRent, IsVacant: true},
		{ID: "d", AvailabilityType: AvailabilityForSale, IsVacant: false},
	}

	stats := ComputeStats(listings)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Vacant)
	assert.Equal(t, 2, stats.Occupied)
	assert.Equal(t, 2, stats.ForSale)
	assert.Equal(t, stats.Total, stats.Vacant+stats.Occupied)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Equal(t, PortfolioStats{}, stats)
}

func TestListingPrice(t *testing.T) {
	rent := Listing{AvailabilityType: AvailabilityForRent, RentPrice: 50000}
	sale := Listing{AvailabilityType: AvailabilityForSale, SalePrice: 9000000}

	assert.Equal(t, int64(50000), rent.Price())
	assert.Equal(t, int64(9000000), sale.Price())
}

func TestListingJSONUsesDocumentFieldNames(t *testing.T) {
	l := Listing{
		ID:               "skip-me",
		Title:            "Garden flat",
		AvailabilityType: AvailabilityForRent,
		RentPrice:        50000,
		Region:           "Nairobi",
		SubRegion:        "Westlands",
		Images:           []PersistedImage{{URL: "https://blobs/PostImage/a.jpg"}},
	}

	data, err := json.Marshal(l)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.NotContains(t, raw, "ID")
	assert.Equal(t, "Nairobi", raw["selectedCounty"])
	assert.Equal(t, "Westlands", raw["subcounties"])
	assert.Equal(t, float64(50000), raw["rentprice"])
}

func TestImageVariants(t *testing.T) {
	images := []ListingImage{
		PersistedImage{URL: "https://blobs/PostImage/a.jpg"},
		PendingImage{Name: "b.jpg", Data: []byte{1}},
	}

	var persisted, pending int
	for _, img := range images {
		switch img.(type) {
		case PersistedImage:
			persisted++
		case PendingImage:
			pending++
		}
	}

	assert.Equal(t, 1, persisted)
	assert.Equal(t, 1, pending)
}

func TestValidationError(t *testing.T) {
	assert.Nil(t, NewValidationError(nil))

	err := NewValidationError(map[string]string{
		"email":        "Email is required",
		"businessname": "Business name is required",
	})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	msg, ok := verr.Field("businessname")
	assert.True(t, ok)
	assert.Equal(t, "Business name is required", msg)
	assert.Equal(t, "validation failed: businessname: Business name is required; email: Email is required", err.Error())
}

func TestRemoteErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&RemoteError{Op: "load listings", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load listings failed: connection reset", err.Error())
}

func TestPartialFailureUnwraps(t *testing.T) {
	err := error(&PartialFailureError{IdentityID: "abc", Err: ErrNotFound})
	assert.ErrorIs(t, err, ErrNotFound)
}

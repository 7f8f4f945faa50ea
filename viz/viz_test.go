package viz

import (
	"testing"
	"time"

	"github.com/harperreed/rentdesk/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleListings(now time.Time) []models.Listing {
	return []models.Listing{
		{
			ID: "a", Title: "Garden flat", PropertyType: models.PropertyApartment,
			AvailabilityType: models.AvailabilityForRent, RentPrice: 45000,
			Town: "Kilimani", Region: "Nairobi", SubRegion: "Dagoretti North",
			IsVacant: true, CreatedAt: now.Add(-60 * 24 * time.Hour), UpdatedAt: now.Add(-45 * 24 * time.Hour),
		},
		{
			ID: "b", Title: "Bedsitter 4", PropertyType: models.PropertyBedsitter,
			AvailabilityType: models.AvailabilityForRent, RentPrice: 12000,
			Town: "Roysambu", Region: "Nairobi", SubRegion: "Roysambu",
			IsVacant: false, CreatedAt: now.Add(-2 * 24 * time.Hour), UpdatedAt: now.Add(-2 * 24 * time.Hour),
		},
		{
			ID: "c", Title: "Beach plot", PropertyType: models.PropertyLand,
			AvailabilityType: models.AvailabilityForSale, SalePrice: 8000000,
			Town: "Nyali", Region: "Mombasa", SubRegion: "Nyali",
			IsVacant: true, CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour),
		},
	}
}

func TestGenerateDashboardStats(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := GenerateDashboardStats(sampleListings(now), map[string]int{"b": 3}, now)

	assert.Equal(t, models.PortfolioStats{Total: 3, Vacant: 2, Occupied: 1, ForSale: 1}, stats.Portfolio)
	assert.Equal(t, int64(12000), stats.RentRoll)
	assert.Equal(t, int64(45000), stats.VacantRent)
	assert.Equal(t, 1, stats.ByType[models.PropertyLand])

	require.Len(t, stats.ByCounty, 2)
	assert.Equal(t, CountyStats{County: "Nairobi", Count: 2, Vacant: 1}, stats.ByCounty[0])

	require.Len(t, stats.RecentActivity, 2)
	assert.Contains(t, stats.RecentActivity[0].Description, "Beach plot")

	require.Len(t, stats.StaleVacancies, 1)
	assert.Equal(t, "Garden flat", stats.StaleVacancies[0].Title)
	assert.ElementsMatch(t, []string{"Garden flat", "Beach plot"}, stats.NoLeads)
}

func TestGenerateDashboardStatsWithoutLeads(t *testing.T) {
	now := time.Now()
	stats := GenerateDashboardStats(sampleListings(now), nil, now)
	assert.Empty(t, stats.NoLeads)
}

func TestRenderDashboard(t *testing.T) {
	now := time.Now()
	out := RenderDashboard("Acme Homes", GenerateDashboardStats(sampleListings(now), nil, now))

	assert.Contains(t, out, "ACME HOMES DASHBOARD")
	assert.Contains(t, out, "3 listings")
	assert.Contains(t, out, "Bedsitter")
	assert.Contains(t, out, "NEEDS ATTENTION")
}

func TestRenderEmptyDashboard(t *testing.T) {
	out := RenderDashboard("Acme Homes", GenerateDashboardStats(nil, nil, time.Now()))
	assert.Contains(t, out, "0 listings")
	assert.NotContains(t, out, "NEEDS ATTENTION")
}

func TestGeneratePortfolioGraph(t *testing.T) {
	dot, err := NewGraphGenerator().GeneratePortfolioGraph("Acme Homes", sampleListings(time.Now()))
	require.NoError(t, err)

	assert.Contains(t, dot, "digraph")
	assert.Contains(t, dot, "Acme Homes")
	assert.Contains(t, dot, "Mombasa")
	assert.Contains(t, dot, "listing_c")
}

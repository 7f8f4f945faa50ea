// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Provides an ASCII overview of a landlord's portfolio
package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/rentdesk/models"
)

type DashboardStats struct {
	Portfolio models.PortfolioStats

	ByType   map[string]int
	ByCounty []CountyStats

	// Monthly rent from occupied rentals
	RentRoll int64
	// Asking rent left on the table by vacant rentals
	VacantRent int64

	// Added in the last 7 days
	RecentActivity []ActivityItem

	// Needs attention
	StaleVacancies []StaleListing
	NoLeads        []string
}

type CountyStats struct {
	County string
	Count  int
	Vacant int
}

type ActivityItem struct {
	Date        time.Time
	Description string
}

type StaleListing struct {
	Title     string
	DaysSince int
}

// GenerateDashboardStats summarises listings. leadCounts may be nil when
// leads were not loaded; otherwise listings missing from it have no leads.
func GenerateDashboardStats(listings []models.Listing, leadCounts map[string]int, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		Portfolio: models.ComputeStats(listings),
		ByType:    make(map[string]int),
	}

	counties := make(map[string]*CountyStats)
	for _, l := range listings {
		stats.ByType[l.PropertyType]++

		cs, ok := counties[l.Region]
		if !ok {
			cs = &CountyStats{County: l.Region}
			counties[l.Region] = cs
		}
		cs.Count++

		if l.AvailabilityType == models.AvailabilityForRent {
			if l.IsVacant {
				stats.VacantRent += l.RentPrice
			} else {
				stats.RentRoll += l.RentPrice
			}
		}

		if l.IsVacant {
			cs.Vacant++
			// vacant for 30+ days since the last edit
			daysSince := int(now.Sub(l.UpdatedAt).Hours() / 24)
			if daysSince > 30 {
				stats.StaleVacancies = append(stats.StaleVacancies, StaleListing{Title: l.Title, DaysSince: daysSince})
			}
		}

		if now.Sub(l.CreatedAt) <= 7*24*time.Hour {
			stats.RecentActivity = append(stats.RecentActivity, ActivityItem{
				Date:        l.CreatedAt,
				Description: fmt.Sprintf("Listed %s (%s)", l.Title, l.AvailabilityType),
			})
		}

		if leadCounts != nil && leadCounts[l.ID] == 0 {
			stats.NoLeads = append(stats.NoLeads, l.Title)
		}
	}

	for _, cs := range counties {
		stats.ByCounty = append(stats.ByCounty, *cs)
	}
	sort.Slice(stats.ByCounty, func(i, j int) bool {
		if stats.ByCounty[i].Count != stats.ByCounty[j].Count {
			return stats.ByCounty[i].Count > stats.ByCounty[j].Count
		}
		return stats.ByCounty[i].County < stats.ByCounty[j].County
	})
	sort.Slice(stats.RecentActivity, func(i, j int) bool {
		return stats.RecentActivity[i].Date.After(stats.RecentActivity[j].Date)
	})

	return stats
}

func RenderDashboard(business string, stats *DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString(fmt.Sprintf("  %s DASHBOARD\n", strings.ToUpper(business)))
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	p := stats.Portfolio
	out.WriteString("PORTFOLIO\n")
	out.WriteString(fmt.Sprintf("  🏠 %d listings  🔑 %d vacant  👪 %d occupied  🏷  %d for sale\n\n",
		p.Total, p.Vacant, p.Occupied, p.ForSale))

	if stats.RentRoll > 0 || stats.VacantRent > 0 {
		out.WriteString("RENT\n")
		out.WriteString(fmt.Sprintf("  Collected: KES %d/month  Vacant: KES %d/month\n\n", stats.RentRoll, stats.VacantRent))
	}

	if len(stats.ByType) > 0 {
		out.WriteString("BY PROPERTY TYPE\n")
		renderTypes(&out, stats.ByType)
		out.WriteString("\n")
	}

	if len(stats.ByCounty) > 0 {
		out.WriteString("BY COUNTY\n")
		for _, cs := range stats.ByCounty {
			out.WriteString(fmt.Sprintf("  %-16s %2d listings, %d vacant\n", cs.County, cs.Count, cs.Vacant))
		}
		out.WriteString("\n")
	}

	if len(stats.RecentActivity) > 0 {
		out.WriteString("THIS WEEK\n")
		for _, a := range stats.RecentActivity {
			out.WriteString(fmt.Sprintf("  %s  %s\n", a.Date.Local().Format("Mon Jan 2"), a.Description))
		}
		out.WriteString("\n")
	}

	if len(stats.StaleVacancies) > 0 || len(stats.NoLeads) > 0 {
		out.WriteString("NEEDS ATTENTION\n")

		if len(stats.StaleVacancies) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d listings - vacant with no update in 30+ days\n", len(stats.StaleVacancies)))
		}

		if len(stats.NoLeads) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d listings - no leads yet\n", len(stats.NoLeads)))
		}
	}

	return out.String()
}

func renderTypes(out *strings.Builder, byType map[string]int) {
	// Find max count for scaling
	maxCount := 0
	for _, n := range byType {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, t := range models.PropertyTypes {
		n, exists := byType[t]
		if !exists {
			continue
		}

		barLength := (n * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-11s %s  %2d\n", t, bar, n))
	}
}

// ABOUTME: Two-level region to sub-region lookup (Kenyan counties and constituencies)
// ABOUTME: Loaded once from an embedded JSON table and immutable afterwards
package taxonomy

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
)

//go:embed counties.json
var countiesJSON []byte

var ErrSubRegionMismatch = errors.New("sub-region does not belong to the selected region")

// Region is a county with its constituencies in display order.
type Region struct {
	Name       string
	SubRegions []string
}

// Taxonomy is a read-only region table.
type Taxonomy struct {
	regions []Region
	index   map[string]int
}

type countyFile struct {
	County []struct {
		Name           string `json:"county_name"`
		Constituencies []struct {
			Name string `json:"constituency_name"`
		} `json:"constituencies"`
	} `json:"County"`
}

// Load parses a county table in the {"County":[{"county_name",...}]} layout.
func Load(r io.Reader) (*Taxonomy, error) {
	var f countyFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode taxonomy: %w", err)
	}

	t := &Taxonomy{index: make(map[string]int, len(f.County))}
	for _, c := range f.County {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate region %q", c.Name)
		}
		region := Region{Name: c.Name, SubRegions: make([]string, 0, len(c.Constituencies))}
		for _, s := range c.Constituencies {
			region.SubRegions = append(region.SubRegions, s.Name)
		}
		t.index[c.Name] = len(t.regions)
		t.regions = append(t.regions, region)
	}
	return t, nil
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the embedded county table.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(countiesJSON))
		if err != nil {
			panic(fmt.Sprintf("embedded counties.json: %v", err))
		}
		defaultTax = t
	})
	return defaultTax
}

// Regions returns region names in table order.
func (t *Taxonomy) Regions() []string {
	names := make([]string, len(t.regions))
	for i, r := range t.regions {
		names[i] = r.Name
	}
	return names
}

// SubRegionsOf returns the sub-regions of region, or an empty slice for an
// unknown or empty region.
func (t *Taxonomy) SubRegionsOf(region string) []string {
	i, ok := t.index[region]
	if !ok {
		return []string{}
	}
	out := make([]string, len(t.regions[i].SubRegions))
	copy(out, t.regions[i].SubRegions)
	return out
}

// HasRegion reports whether region is in the table.
func (t *Taxonomy) HasRegion(region string) bool {
	_, ok := t.index[region]
	return ok
}

// Contains reports whether subRegion belongs to region.
func (t *Taxonomy) Contains(region, subRegion string) bool {
	i, ok := t.index[region]
	if !ok {
		return false
	}
	for _, s := range t.regions[i].SubRegions {
		if s == subRegion {
			return true
		}
	}
	return false
}

// Selection is a cascading region/sub-region choice.
type Selection struct {
	tax       *Taxonomy
	region    string
	subRegion string
}

func (t *Taxonomy) NewSelection() *Selection {
	return &Selection{tax: t}
}

// SelectRegion sets the region and always clears the sub-region.
func (s *Selection) SelectRegion(region string) {
	s.region = region
	s.subRegion = ""
}

// SelectSubRegion sets the sub-region if it belongs to the current region.
func (s *Selection) SelectSubRegion(subRegion string) error {
	if !s.tax.Contains(s.region, subRegion) {
		return fmt.Errorf("%w: %q not in %q", ErrSubRegionMismatch, subRegion, s.region)
	}
	s.subRegion = subRegion
	return nil
}

func (s *Selection) Region() string    { return s.region }
func (s *Selection) SubRegion() string { return s.subRegion }

// Options lists the sub-regions available for the current region.
func (s *Selection) Options() []string {
	return s.tax.SubRegionsOf(s.region)
}

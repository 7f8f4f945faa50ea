// ABOUTME: Portfolio graph generation with graphviz
// ABOUTME: Groups listings under their county and constituency
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/rentdesk/models"
)

type GraphGenerator struct {
	layout string
}

func NewGraphGenerator() *GraphGenerator {
	return &GraphGenerator{layout: "dot"}
}

// GeneratePortfolioGraph renders business → county → constituency → listing
// as DOT source. Vacant listings are green, occupied grey; sales are diamonds.
func (g *GraphGenerator) GeneratePortfolioGraph(business string, listings []models.Listing) (string, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLayout(g.layout)
	graph.SetRankDir(cgraph.LRRank)
	graph.SetLabel(business + " portfolio")

	root, err := graph.CreateNodeByName("business")
	if err != nil {
		return "", fmt.Errorf("failed to create business node: %w", err)
	}
	root.SetLabel(business)
	root.SetShape("box")
	root.SetStyle("filled")
	root.SetFillColor("lightblue")

	counties := make(map[string]*cgraph.Node)
	subCounties := make(map[string]*cgraph.Node)

	for _, l := range listings {
		county, ok := counties[l.Region]
		if !ok {
			county, err = graph.CreateNodeByName("county_" + l.Region)
			if err != nil {
				return "", fmt.Errorf("failed to create county node: %w", err)
			}
			county.SetLabel(l.Region)
			county.SetShape("folder")
			counties[l.Region] = county
			if _, err := graph.CreateEdgeByName("", root, county); err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
		}

		key := l.Region + "/" + l.SubRegion
		sub, ok := subCounties[key]
		if !ok {
			sub, err = graph.CreateNodeByName("sub_" + key)
			if err != nil {
				return "", fmt.Errorf("failed to create constituency node: %w", err)
			}
			sub.SetLabel(l.SubRegion)
			sub.SetShape("tab")
			subCounties[key] = sub
			if _, err := graph.CreateEdgeByName("", county, sub); err != nil {
				return "", fmt.Errorf("failed to create edge: %w", err)
			}
		}

		node, err := graph.CreateNodeByName("listing_" + l.ID)
		if err != nil {
			return "", fmt.Errorf("failed to create listing node: %w", err)
		}
		node.SetLabel(fmt.Sprintf("%s\n%s\nKES %d", l.Title, l.Town, l.Price()))
		node.SetStyle("filled")
		if l.AvailabilityType == models.AvailabilityForSale {
			node.SetShape("diamond")
		} else {
			node.SetShape("ellipse")
		}
		if l.IsVacant {
			node.SetFillColor("lightgreen")
		} else {
			node.SetFillColor("lightgrey")
		}

		edge, err := graph.CreateEdgeByName("", sub, node)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(l.PropertyType)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}

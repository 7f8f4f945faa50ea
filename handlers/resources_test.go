package handlers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/harperreed/rentdesk/docstore"
	"github.com/harperreed/rentdesk/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readResource(t *testing.T, h *ResourceHandlers, uri string) (*mcp.ReadResourceResult, error) {
	t.Helper()
	return h.ReadResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: uri},
	})
}

func TestReadListingsResource(t *testing.T) {
	f := setup(t, true)
	_, created, err := f.listings.CreateListing(context.Background(), nil, validInput(t))
	require.NoError(t, err)

	res, err := readResource(t, f.resources, "rentdesk://listings")
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "application/json", res.Contents[0].MIMEType)

	var out []ListingOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &out))
	require.Len(t, out, 1)
	assert.Equal(t, created.ID, out[0].ID)
}

func TestReadListingResourceIncludesLeads(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()
	_, created, err := f.listings.CreateListing(ctx, nil, validInput(t))
	require.NoError(t, err)

	_, err = f.store.Add(ctx, docstore.LeadsCollection(f.tenant, created.ID),
		models.ContactAttempt{ClientName: "Wanjiru", ContactType: models.ContactTypeCall})
	require.NoError(t, err)

	res, err := readResource(t, f.resources, "rentdesk://listings/"+created.ID)
	require.NoError(t, err)

	var out struct {
		ID    string       `json:"id"`
		Leads []LeadOutput `json:"leads"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &out))
	assert.Equal(t, created.ID, out.ID)
	require.Len(t, out.Leads, 1)
	assert.Equal(t, "Wanjiru", out.Leads[0].ClientName)

	_, err = readResource(t, f.resources, "rentdesk://listings/missing")
	assert.Error(t, err)
}

func TestReadStatsAndRegionsResources(t *testing.T) {
	f := setup(t, true)
	_, _, err := f.listings.CreateListing(context.Background(), nil, validInput(t))
	require.NoError(t, err)

	res, err := readResource(t, f.resources, "rentdesk://stats")
	require.NoError(t, err)
	var stats StatsOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &stats))
	assert.Equal(t, StatsOutput{Total: 1, Vacant: 1}, stats)

	res, err = readResource(t, f.resources, "rentdesk://regions")
	require.NoError(t, err)
	var regions map[string][]string
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &regions))
	assert.Len(t, regions, 47)
	assert.Contains(t, regions["Mombasa"], "Nyali")
}

func TestReadResourceErrors(t *testing.T) {
	f := setup(t, false)

	_, err := readResource(t, f.resources, "https://example.com/listings")
	assert.Error(t, err)
	_, err = readResource(t, f.resources, "rentdesk://deals")
	assert.Error(t, err)
	_, err = readResource(t, f.resources, "rentdesk://listings")
	assert.ErrorIs(t, err, ErrNotSignedIn)

	// regions need no session
	_, err = readResource(t, f.resources, "rentdesk://regions")
	assert.NoError(t, err)
}

package charm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientKeysWithPrefix(t *testing.T) {
	c := NewTestClient(t)

	require.NoError(t, c.Set([]byte("RealEstate/t1"), []byte("a")))
	require.NoError(t, c.Set([]byte("RealEstate/t1/properties/l1"), []byte("b")))
	require.NoError(t, c.Set([]byte("other"), []byte("c")))

	keys, err := c.KeysWithPrefix("RealEstate/t1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"RealEstate/t1/properties/l1"}, keys)
	assert.True(t, c.IsConnected())
}

func TestClientReset(t *testing.T) {
	c := NewTestClient(t)
	require.NoError(t, c.Set([]byte("k"), []byte("v")))
	require.NoError(t, c.Reset())

	keys, err := c.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.True(t, cfg.AutoSync)
}

func TestLoadConfigFromMissingFile(t *testing.T) {
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "charm.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultCharmHost, cfg.Host)
	assert.True(t, cfg.AutoSync)
}

func TestConfigSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "charm.json")

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)
	cfg.Host = "charm.example.test"
	require.NoError(t, cfg.SetAutoSync(false))

	loaded, err := LoadConfigFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "charm.example.test", loaded.Host)
	assert.False(t, loaded.AutoSync)
}

func TestLoadConfigFromRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charm.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := LoadConfigFrom(path)
	assert.Error(t, err)
}

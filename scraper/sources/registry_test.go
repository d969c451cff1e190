package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default()
	assert.Equal(t, []string{"realtor", "homes", "coldwellbanker", "compass", "exp", "united"}, reg.IDs())

	a, err := reg.Get("compass")
	require.NoError(t, err)
	assert.Equal(t, "COMPASS_LIST", a.Label())

	byLabel, ok := reg.ByLabel("HOMES_LIST")
	require.True(t, ok)
	assert.Equal(t, "homes", byLabel.ID())

	_, err = reg.Get("zillow")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}

func TestRegistrySelect(t *testing.T) {
	reg := Default()
	selected, unknown := reg.Select([]string{"homes", "zillow", "realtor", "homes"})
	require.Len(t, selected, 2)
	assert.Equal(t, "homes", selected[0].ID())
	assert.Equal(t, "realtor", selected[1].ID())
	assert.Equal(t, []string{"zillow"}, unknown)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(Realtor()))
	require.Error(t, reg.Register(Realtor()))
}

func TestLoadSpecs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `sources:
  - id: acme
    domain: acme.example
    url: https://acme.example/agents?page={page}
    max_pages: 2
    cards: .agent
    name: .agent-name
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	specs, err := LoadSpecs(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)

	reg := Default()
	require.NoError(t, reg.RegisterSpecs(specs))

	a, err := reg.Get("acme")
	require.NoError(t, err)
	assert.Equal(t, "ACME_LIST", a.Label())

	got := a.Parse(mustDoc(t, `<div class="agent"><b class="agent-name">wile e coyote</b></div>`))
	require.Len(t, got, 1)
	assert.Equal(t, "Wile E Coyote", got[0].Name)
	assert.Equal(t, "acme.example", got[0].Source)
}

func TestLoadSpecsMissingFile(t *testing.T) {
	_, err := LoadSpecs(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

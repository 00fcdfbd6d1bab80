package subscriptions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.Len(t, c.Plans, 3)

	basic, ok := c.Find("BASIC")
	require.True(t, ok)
	assert.Equal(t, 9.99, basic.Price)
	assert.Equal(t, []string{"Basic scanning", "Weekly reports"}, basic.Features)

	pro, ok := c.Find("Pro")
	require.True(t, ok)
	assert.Equal(t, "$29.99", pro.PriceLabel)

	enterprise, ok := c.Find("enterprise")
	require.True(t, ok)
	assert.Equal(t, "Custom", enterprise.PriceLabel)
	assert.True(t, enterprise.ContactSales)

	_, ok = c.Find("gold")
	assert.False(t, ok)
}

func TestLoadCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
plans:
  - id: starter
    name: Starter
    price: 4.5
    features: [Scanning]
`), 0o600))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Plans, 1)
	assert.Equal(t, "$4.50", c.Plans[0].PriceLabel)
}

func TestParseCatalogRejectsBadInput(t *testing.T) {
	_, err := ParseCatalog([]byte("plans: []"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("plans:\n  - id: a\n    name: A\n  - id: A\n    name: Again\n"))
	assert.Error(t, err)

	_, err = ParseCatalog([]byte("plans:\n  - name: Nameless\n"))
	assert.Error(t, err)
}

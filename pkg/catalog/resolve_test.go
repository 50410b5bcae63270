package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := New([]Descriptor{
		{Name: "hub-us-auth", PathTemplate: "/logs/us/auth/{YYYY}/{MM}/{DD}/{HH}/*.log"},
		{Name: "hub-ca-auth", PathTemplate: "/logs/ca/auth/{YYYY}/{MM}/{DD}/{HH}/*.log"},
		{Name: "hub-us-billing", AltName: "payments", PathTemplate: "/logs/us/billing/*.log"},
		{Name: "hub-na-gateway", PathTemplate: "/logs/na/gateway/{YYYY}/{MM}/{DD}/{HH}/*.log"},
		{Name: "standalone", PathTemplate: "/logs/standalone/*.log"},
	})
	require.NoError(t, err)
	return c
}

func names(ds []Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name
	}
	return out
}

func TestResolveExactName(t *testing.T) {
	c := testCatalog(t)

	got := c.Resolve("hub-us-auth", "")
	assert.Equal(t, []string{"hub-us-auth"}, names(got))

	// Normalization applies to the query.
	got = c.Resolve("Hub_US_Auth", "")
	assert.Equal(t, []string{"hub-us-auth"}, names(got))
}

func TestResolveAltName(t *testing.T) {
	c := testCatalog(t)

	got := c.Resolve("payments", "")
	assert.Equal(t, []string{"hub-us-billing"}, names(got))
}

func TestResolveBaseName(t *testing.T) {
	c := testCatalog(t)

	// "auth" matches both regional variants via base-name equality.
	got := c.Resolve("auth", "")
	assert.ElementsMatch(t, []string{"hub-us-auth", "hub-ca-auth"}, names(got))
}

func TestResolveSubstring(t *testing.T) {
	c := testCatalog(t)

	got := c.Resolve("gatew", "")
	assert.Equal(t, []string{"hub-na-gateway"}, names(got))

	// Containment works in both directions.
	got = c.Resolve("the-standalone-service", "")
	assert.Equal(t, []string{"standalone"}, names(got))
}

func TestResolveStagePrecedence(t *testing.T) {
	c, err := New([]Descriptor{
		{Name: "auth", PathTemplate: "/logs/auth/*.log"},
		{Name: "hub-us-auth", PathTemplate: "/logs/us/auth/*.log"},
	})
	require.NoError(t, err)

	// Exact name wins before base-name equality can widen the set.
	got := c.Resolve("auth", "")
	assert.Equal(t, []string{"auth"}, names(got))
}

func TestResolveLocale(t *testing.T) {
	c := testCatalog(t)

	got := c.Resolve("auth", "ca")
	assert.Equal(t, []string{"hub-ca-auth"}, names(got))

	got = c.Resolve("auth", "us")
	assert.Equal(t, []string{"hub-us-auth"}, names(got))

	// na admits all regional families.
	got = c.Resolve("auth", "na")
	assert.ElementsMatch(t, []string{"hub-us-auth", "hub-ca-auth"}, names(got))

	// Unknown locale admits nothing.
	assert.Empty(t, c.Resolve("auth", "eu"))
}

func TestResolveNoMatch(t *testing.T) {
	c := testCatalog(t)
	assert.Empty(t, c.Resolve("nonexistent-xyz", ""))
	assert.Empty(t, c.Resolve("", ""))
}

func TestSuggest(t *testing.T) {
	c := testCatalog(t)

	got := c.Suggest("hub-us-authh")
	require.NotEmpty(t, got)
	assert.Equal(t, "hub-us-auth", got[0])
	assert.LessOrEqual(t, len(got), 5)
}

func TestLookup(t *testing.T) {
	c := testCatalog(t)

	d, ok := c.Lookup("Hub_US_Auth")
	require.True(t, ok)
	assert.Equal(t, "hub-us-auth", d.Name)

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

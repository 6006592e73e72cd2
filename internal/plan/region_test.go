package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRegions_Default(t *testing.T) {
	rs, err := LoadRegions("")
	require.NoError(t, err)

	il, err := rs.Get("il")
	require.NoError(t, err)
	assert.Equal(t, "Illinois", il.Name)
	assert.Equal(t, "Chicago", il.Cities[0])
	assert.Greater(t, len(il.Cities), 25)
	assert.True(t, il.HasBound())
	assert.True(t, il.Bound().Contains(orb.Point{-87.6298, 41.8781}))
	assert.False(t, il.Bound().Contains(orb.Point{-122.4194, 37.7749}))
}

func TestLoadRegions_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
regions:
  - name: Oregon
    code: or
    cities: [Portland, Salem, Eugene]
`), 0o644))

	rs, err := LoadRegions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"OR"}, rs.Codes())

	or, err := rs.Get("OR")
	require.NoError(t, err)
	assert.False(t, or.HasBound())
}

func TestLoadRegions_MissingFile(t *testing.T) {
	_, err := LoadRegions(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseRegions_Errors(t *testing.T) {
	_, err := ParseRegions([]byte("regions:\n  - name: X\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no code")

	_, err = ParseRegions([]byte("regions:\n  - {name: A, code: IL}\n  - {name: B, code: il}\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate region code")

	_, err = ParseRegions([]byte("regions: {"))
	assert.Error(t, err)
}

func TestRegions_GetUnknown(t *testing.T) {
	rs, err := LoadRegions("")
	require.NoError(t, err)

	_, err = rs.Get("ZZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IL")
}

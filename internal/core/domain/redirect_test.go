package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/protobuild/internal/core/domain"
)

func TestParseRedirect(t *testing.T) {
	t.Parallel()

	original, target, err := domain.ParseRedirect("https://a.example.com/X=https://b.example.com/X?k=v")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.com/X", original)
	assert.Equal(t, "https://b.example.com/X?k=v", target)

	for _, bad := range []string{"", "noequals", "=target", "original="} {
		_, _, err := domain.ParseRedirect(bad)
		require.ErrorIs(t, err, domain.ErrInvalidRedirect, bad)
	}
}

func TestPackageRedirectTable(t *testing.T) {
	t.Parallel()

	table, err := domain.NewRedirectTableFromDirectives([]string{
		"https://example.com/B=/src/B",
		"https://example.com/A=/src/A-old",
		"https://example.com/A=/src/A",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	target, ok := table.Resolve("https://example.com/A")
	require.True(t, ok)
	assert.Equal(t, "/src/A", target, "last registration wins")

	_, ok = table.Resolve("https://example.com/C")
	assert.False(t, ok)

	assert.Equal(t, []string{
		"--redirect", "https://example.com/A=/src/A",
		"--redirect", "https://example.com/B=/src/B",
	}, table.Arguments())
	assert.Equal(t,
		`--redirect "https://example.com/A=/src/A" --redirect "https://example.com/B=/src/B"`,
		table.GetRedirectionArguments())
}

func TestPackageRedirectTable_Nil(t *testing.T) {
	t.Parallel()

	var table *domain.PackageRedirectTable
	_, ok := table.Resolve("https://example.com/A")
	assert.False(t, ok)
	assert.Zero(t, table.Len())
	assert.Empty(t, table.Arguments())
	assert.Empty(t, table.GetRedirectionArguments())
}

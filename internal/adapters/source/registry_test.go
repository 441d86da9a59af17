package source_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/protobuild/internal/adapters/source"
	"go.trai.ch/protobuild/internal/core/domain"
)

func TestRegistry_For(t *testing.T) {
	t.Parallel()

	registry := source.NewDefaultRegistry(http.DefaultClient)

	tests := []struct {
		uri  string
		want string
	}{
		{"local-pointer://../Shared", "local-pointer"},
		{"local-git:///src/repo", "local-git"},
		{"https-nuget-v3://api.nuget.org/v3/index.json|Newtonsoft.Json", "nuget-v3"},
		{"http-nuget-v3://feed.local/index.json|Foo", "nuget-v3"},
		{"git@github.com:owner/repo.git", "git"},
		{"ssh://git@example.com/repo", "git"},
		{"git://example.com/repo", "git"},
		{"https://github.com/owner/repo.git", "git"},
		{"https://example.com/files/Foo.tar.lzma", "archive"},
		{"https://example.com/files/Foo.tgz?sig=abc", "archive"},
		{"https://example.com/files/Foo.1.0.0.nupkg", "archive"},
		{"https://packages.example.com/Foo", "index"},
		{"file:///opt/packages/Foo", "local"},
		{"../Foo", "local"},
		{"/abs/Foo.tar.gz", "local"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			t.Parallel()
			s, err := registry.For(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Name())
		})
	}

	t.Run("unknown scheme", func(t *testing.T) {
		t.Parallel()
		_, err := registry.For("ftp://example.com/Foo")
		require.ErrorIs(t, err, domain.ErrNoSourceForURI)
	})
}

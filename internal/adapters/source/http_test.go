package source_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/protobuild/internal/adapters/source"
	"go.trai.ch/protobuild/internal/core/domain"
)

const commit = "0123456789abcdef0123456789abcdef01234567"

func newIndexServer(t *testing.T, binaryPlatforms ...string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /Foo/api", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]string{"gitUrl": "https://git.example.com/Foo.git", "binaryFormat": "tar/gzip"},
		})
	})
	mux.HandleFunc("GET /Broken/api", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "package disabled"})
	})
	mux.HandleFunc("GET /Foo/hash/{ref}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("ref") != "master" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(commit + "\n"))
	})
	mux.HandleFunc("/Foo/binary/{platform}/{commit}", func(w http.ResponseWriter, r *http.Request) {
		for _, p := range binaryPlatforms {
			if p == r.PathValue("platform") && r.PathValue("commit") == commit {
				_, _ = w.Write([]byte("archive bytes"))
				return
			}
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/Private/api", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/Down/api", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIndexSource_Lookup(t *testing.T) {
	t.Parallel()

	srv := newIndexServer(t, "Linux")
	s := source.NewIndexSource(srv.Client(), source.NewGitSource())

	t.Run("binary available", func(t *testing.T) {
		t.Parallel()

		meta, err := s.Lookup(context.Background(), srv.URL+"/Foo", "master", "Linux")
		require.NoError(t, err)
		assert.Equal(t, commit, meta.Commit)
		assert.True(t, meta.BinaryAvailable)
		assert.Equal(t, domain.FormatTarGzip, meta.Format)
		assert.True(t, meta.SourceAvailable)
		assert.Equal(t, "https://git.example.com/Foo.git", meta.GitURI)

		var buf bytes.Buffer
		require.NoError(t, s.DownloadBinary(context.Background(), meta, &buf))
		assert.Equal(t, "archive bytes", buf.String())
	})

	t.Run("binary missing for platform", func(t *testing.T) {
		t.Parallel()

		meta, err := s.Lookup(context.Background(), srv.URL+"/Foo", "master", "Windows")
		require.NoError(t, err)
		assert.False(t, meta.BinaryAvailable)

		err = s.DownloadBinary(context.Background(), meta, &bytes.Buffer{})
		require.ErrorIs(t, err, domain.ErrBinaryUnavailable)
	})

	t.Run("unknown ref", func(t *testing.T) {
		t.Parallel()

		_, err := s.Lookup(context.Background(), srv.URL+"/Foo", "does-not-exist", "Linux")
		require.ErrorIs(t, err, domain.ErrFetchRefNotFound)
	})

	t.Run("commit refs skip the hash endpoint", func(t *testing.T) {
		t.Parallel()

		meta, err := s.Lookup(context.Background(), srv.URL+"/Foo", strings.ToUpper(commit), "Linux")
		require.NoError(t, err)
		assert.Equal(t, commit, meta.Commit)
	})

	t.Run("error envelope", func(t *testing.T) {
		t.Parallel()

		_, err := s.Lookup(context.Background(), srv.URL+"/Broken", "master", "Linux")
		require.Error(t, err)
		assert.ErrorContains(t, err, "package disabled")
	})

	t.Run("status mapping", func(t *testing.T) {
		t.Parallel()

		_, err := s.Lookup(context.Background(), srv.URL+"/Private", "master", "Linux")
		require.ErrorIs(t, err, domain.ErrFetchAuth)

		_, err = s.Lookup(context.Background(), srv.URL+"/Down", "master", "Linux")
		require.ErrorIs(t, err, domain.ErrFetchUnreachable)

		var fetchErr *domain.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.True(t, fetchErr.Retryable())
	})
}

func TestNuGetSource_Lookup(t *testing.T) {
	t.Parallel()

	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v3/index.json", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"resources": []map[string]string{
				{"@id": srv.URL + "/search", "@type": "SearchQueryService"},
				{"@id": srv.URL + "/flat/", "@type": "PackageBaseAddress/3.0.0"},
			},
		})
	})
	mux.HandleFunc("GET /flat/foo.bar/index.json", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"versions": []string{"1.0.0", "1.1.0-beta", "2.0.0"}})
	})
	mux.HandleFunc("GET /flat/foo.bar/1.0.0/foo.bar.1.0.0.nupkg", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("PK"))
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := source.NewNuGetSource(srv.Client())
	feed := "http-nuget-v3://" + strings.TrimPrefix(srv.URL, "http://") + "/v3/index.json|Foo.Bar"

	meta, err := s.Lookup(context.Background(), feed, "master", "Linux")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", meta.Commit)
	assert.Equal(t, domain.FormatNuGetZip, meta.Format)
	assert.Equal(t, srv.URL+"/flat/foo.bar/2.0.0/foo.bar.2.0.0.nupkg", meta.BinaryURI)

	meta, err = s.Lookup(context.Background(), feed, "1.0.0", "Linux")
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, s.DownloadBinary(context.Background(), meta, &buf))
	assert.Equal(t, "PK", buf.String())

	_, err = s.Lookup(context.Background(), feed, "9.9.9", "Linux")
	require.ErrorIs(t, err, domain.ErrFetchRefNotFound)

	err = s.CheckoutSource(context.Background(), meta, t.TempDir())
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestArchiveURLSource(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/Foo.tar.lzma", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("lzma bytes"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	s := source.NewArchiveURLSource(srv.Client())

	meta, err := s.Lookup(context.Background(), srv.URL+"/Foo.tar.lzma", "master", "Linux")
	require.NoError(t, err)
	assert.Equal(t, domain.FormatTarLZMA, meta.Format)

	var buf bytes.Buffer
	require.NoError(t, s.DownloadBinary(context.Background(), meta, &buf))
	assert.Equal(t, "lzma bytes", buf.String())

	_, err = s.Lookup(context.Background(), srv.URL+"/Missing.tar.gz", "master", "Linux")
	require.ErrorIs(t, err, domain.ErrFetchRefNotFound)
}

package dedup_test

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/protobuild/internal/adapters/fs"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/protobuild/internal/engine/dedup"
)

func newDeduplicator() *dedup.Deduplicator {
	return dedup.New(fs.NewHasher())
}

func TestDeduplicator_AddFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	c := filepath.Join(dir, "c.txt")
	require.NoError(t, os.WriteFile(a, []byte("shared"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("shared"), 0o600))
	require.NoError(t, os.WriteFile(c, []byte("other"), 0o600))

	d := newDeduplicator()

	t.Run("identical content is stored once", func(t *testing.T) {
		t.Parallel()
		state := d.CreateState()
		require.NoError(t, d.AddFile(state, a, "x/a.txt"))
		require.NoError(t, d.AddFile(state, b, "y/b.txt"))
		require.NoError(t, d.AddFile(state, c, "c.txt"))

		assert.Len(t, state.DestinationToFileHash, 3)
		assert.Len(t, state.FileHashToSource, 2)
		assert.Equal(t, state.DestinationToFileHash["x/a.txt"], state.DestinationToFileHash["y/b.txt"])
		require.NoError(t, state.Validate())
	})

	t.Run("first write to a destination wins", func(t *testing.T) {
		t.Parallel()
		state := d.CreateState()
		require.NoError(t, d.AddFile(state, a, "same.txt"))
		require.NoError(t, d.AddFile(state, c, "same.txt"))

		content, ok := state.Content("same.txt")
		require.True(t, ok)
		assert.Equal(t, "shared", string(content))
		assert.Len(t, state.FileHashToSource, 1)
	})

	t.Run("destinations are normalized", func(t *testing.T) {
		t.Parallel()
		state := d.CreateState()
		require.NoError(t, d.AddFile(state, a, "\\Build\\Module.xml"))

		_, ok := state.Content("Build/Module.xml")
		assert.True(t, ok)
	})

	t.Run("missing source file", func(t *testing.T) {
		t.Parallel()
		state := d.CreateState()
		err := d.AddFile(state, filepath.Join(dir, "missing"), "missing")
		require.Error(t, err)
		require.ErrorContains(t, err, domain.ErrFileOpenFailed.Error())
		assert.Empty(t, state.DestinationToFileHash)
	})
}

func TestDeduplicator_AddDirectory(t *testing.T) {
	t.Parallel()

	d := newDeduplicator()
	state := d.CreateState()
	d.AddDirectory(state, "Build")
	d.AddDirectory(state, "Build/")
	d.AddDirectory(state, "")

	assert.Equal(t, []string{"Build/"}, state.Directories())
	assert.Nil(t, state.DestinationToFileHash["Build/"])
	require.NoError(t, state.Validate())
}

func fixedClock() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
}

func sampleState(t *testing.T) *domain.DeduplicatorState {
	t.Helper()

	d := newDeduplicator()
	state := d.CreateState()
	d.AddDirectory(state, "Build/")
	require.NoError(t, d.AddBytes(state, []byte("<Module/>"), "Build/Module.xml"))
	require.NoError(t, d.AddBytes(state, []byte("same"), "a.txt"))
	require.NoError(t, d.AddBytes(state, []byte("same"), "b.txt"))
	return state
}

func TestTarStrategy_Push(t *testing.T) {
	t.Parallel()

	state := sampleState(t)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	strategy := dedup.NewTarStrategy(tw)
	strategy.SetClock(fixedClock)

	var calls int
	require.NoError(t, strategy.Push(state, func(done, total int) {
		calls++
		assert.Equal(t, 2, total)
		assert.Equal(t, calls, done)
	}))
	require.NoError(t, tw.Close())
	assert.Equal(t, 2, calls)

	tr := tar.NewReader(&buf)
	var names []string
	links := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
		assert.Equal(t, int64(domain.ArchiveEntryMode), hdr.Mode)
		assert.True(t, hdr.ModTime.Equal(fixedClock()))
		if hdr.Typeflag == tar.TypeLink {
			links[hdr.Name] = hdr.Linkname
		}
	}

	require.Len(t, names, 6)
	for _, n := range names[:2] {
		assert.Contains(t, n, domain.DedupFilesDir)
	}
	assert.Equal(t, []string{"Build/", "Build/Module.xml", "a.txt", "b.txt"}, names[2:])
	assert.Equal(t, links["a.txt"], links["b.txt"])
	assert.NotEqual(t, links["a.txt"], links["Build/Module.xml"])
}

func TestZipStrategy_Push(t *testing.T) {
	t.Parallel()

	d := newDeduplicator()
	state := d.CreateState()
	require.NoError(t, d.AddBytes(state, []byte("<package/>"), "Foo.nuspec"))
	require.NoError(t, d.AddBytes(state, []byte("lib"), "protobuild/Linux/lib.so"))
	require.NoError(t, d.AddBytes(state, []byte("lib"), "protobuild/Windows/lib.so"))
	require.NoError(t, d.AddBytes(state, []byte("<package/>"), "protobuild/Linux/copy.nuspec"))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	strategy := dedup.NewZipStrategy(zw)
	strategy.SetClock(fixedClock)
	require.NoError(t, strategy.Push(state, nil))
	require.NoError(t, zw.Close())

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	var names []string
	var index []byte
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name == domain.DedupIndexName {
			rc, err := f.Open()
			require.NoError(t, err)
			index, err = io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
		}
	}

	assert.Contains(t, names, "Foo.nuspec")
	assert.NotContains(t, names, "protobuild/Linux/lib.so")
	assert.NotContains(t, names, "protobuild/Windows/lib.so")
	assert.Len(t, names, 3)

	g := goldie.New(t)
	g.Assert(t, "zip_index", index)
	assert.Equal(t, string(index), dedup.IndexText(state))
}

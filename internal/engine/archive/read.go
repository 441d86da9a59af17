package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz/lzma"
	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	zipMagic      = []byte("PK\x03\x04")
	emptyZipMagic = []byte("PK\x05\x06")
)

// detect identifies the container by its zip signature, or by whether the payload decompresses
// as gzip and then as LZMA into something that starts like a tar stream.
func detect(data []byte) (domain.ArchiveFormat, error) {
	if bytes.HasPrefix(data, zipMagic) || bytes.HasPrefix(data, emptyZipMagic) {
		return domain.FormatNuGetZip, nil
	}

	if gz, err := gzip.NewReader(bytes.NewReader(data)); err == nil {
		ok := looksLikeTar(gz)
		_ = gz.Close()
		if ok {
			return domain.FormatTarGzip, nil
		}
	}

	if lz, err := lzma.NewReader(bytes.NewReader(data)); err == nil && looksLikeTar(lz) {
		return domain.FormatTarLZMA, nil
	}

	return "", zerr.Wrap(domain.ErrUnrecognizedFormat, "no known codec decodes the archive")
}

// looksLikeTar reports whether r decodes into a tar stream whose first header is valid.
// An empty tar stream counts.
func looksLikeTar(r io.Reader) bool {
	_, err := tar.NewReader(r).Next()
	return err == nil || errors.Is(err, io.EOF)
}

// readTar collects regular entries and resolves hard links against them.
func readTar(r io.Reader) (map[string][]byte, error) {
	tr := tar.NewReader(r)
	regular := make(map[string][]byte)
	links := make(map[string]string)
	out := make(map[string][]byte)

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrArchiveReadFailed.Error())
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			out[dirName(hdr.Name)] = nil
		case tar.TypeLink:
			links[hdr.Name] = hdr.Linkname
		case tar.TypeReg:
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "entry", hdr.Name)
			}
			regular[hdr.Name] = data
		}
	}

	for name, data := range regular {
		if strings.HasPrefix(name, domain.DedupFilesDir) {
			continue
		}
		out[name] = data
	}
	for name, target := range links {
		data, ok := regular[target]
		if !ok {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrDedupIndexInvalid, "hard link target missing"), "entry", name), "target", target)
		}
		out[name] = data
	}
	return out, nil
}

// readZip expands the _DedupIndex.txt entries of a zip archive.
func readZip(data []byte) (map[string][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrArchiveReadFailed.Error())
	}

	files := make(map[string][]byte)
	out := make(map[string][]byte)
	var index []byte

	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			out[f.Name] = nil
			continue
		}
		content, err := readZipEntry(f)
		if err != nil {
			return nil, err
		}
		if f.Name == domain.DedupIndexName {
			index = content
			continue
		}
		files[f.Name] = content
	}

	for name, content := range files {
		if strings.HasPrefix(name, domain.DedupFilesDir) {
			continue
		}
		out[name] = content
	}

	scanner := bufio.NewScanner(bytes.NewReader(index))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		logical, canonical, ok := strings.Cut(line, "?")
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrDedupIndexInvalid, "malformed index line"), "line", line)
		}
		content, ok := files[canonical]
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrDedupIndexInvalid, "index target missing"), "line", line)
		}
		out[logical] = content
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrArchiveReadFailed.Error())
	}
	return out, nil
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "entry", f.Name)
	}
	defer rc.Close() //nolint:errcheck // Reader close has nothing to flush

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrArchiveReadFailed.Error()), "entry", f.Name)
	}
	return content, nil
}

func dirName(name string) string {
	if strings.HasSuffix(name, "/") {
		return name
	}
	return name + "/"
}

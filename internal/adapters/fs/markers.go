package fs

import (
	"encoding/json"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/protobuild/internal/core/domain"
	"go.trai.ch/zerr"
)

// AtomicWriteFile writes data to a temp file next to path and renames it into place.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// WriteRedirect makes folder forward to target by writing a .redirect marker holding the
// slash-separated relative path from folder to target.
func WriteRedirect(folder, target string) error {
	absFolder, err := filepath.Abs(folder)
	if err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}

	rel, err := filepath.Rel(absFolder, absTarget)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error()), "target", target)
	}

	marker := filepath.Join(absFolder, domain.RedirectMarkerName)
	if err := AtomicWriteFile(marker, []byte(filepath.ToSlash(rel)+"\n"), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error()), "path", marker)
	}
	return nil
}

// ReadRedirect returns the absolute folder that folder forwards to, if it is a pointer.
func ReadRedirect(folder string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(folder, domain.RedirectMarkerName)) //nolint:gosec // Marker path is derived from the package folder
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}

	rel := strings.TrimSpace(string(data))
	return filepath.Clean(filepath.Join(folder, filepath.FromSlash(rel))), true, nil
}

// FollowRedirects follows pointer markers from folder to the folder holding real content.
func FollowRedirects(folder string) (string, error) {
	current := filepath.Clean(folder)
	seen := map[string]struct{}{}

	for {
		if _, ok := seen[current]; ok {
			return "", zerr.With(zerr.Wrap(domain.ErrRedirectLoop, "pointer markers form a cycle"), "path", folder)
		}
		seen[current] = struct{}{}

		next, ok, err := ReadRedirect(current)
		if err != nil {
			return "", err
		}
		if !ok {
			return current, nil
		}
		current = next
	}
}

// WritePackageMarker records what was materialized in folder.
func WritePackageMarker(folder string, marker domain.PackageMarker) error {
	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}

	path := filepath.Join(folder, domain.PackageMarkerName)
	if err := AtomicWriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error()), "path", path)
	}
	return nil
}

// ReadPackageMarker returns the .pkg marker of folder, or nil when there is none or it is unreadable.
func ReadPackageMarker(folder string) *domain.PackageMarker {
	data, err := os.ReadFile(filepath.Join(folder, domain.PackageMarkerName)) //nolint:gosec // Marker path is derived from the package folder
	if err != nil {
		return nil
	}

	var marker domain.PackageMarker
	if err := json.Unmarshal(data, &marker); err != nil {
		return nil
	}
	return &marker
}

// CleanFolder removes every entry of folder except the names in keep. A missing folder is not an error.
func CleanFolder(folder string, keep ...string) error {
	entries, err := os.ReadDir(folder)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", folder)
	}

	for _, e := range entries {
		if contains(keep, e.Name()) {
			continue
		}
		path := filepath.Join(folder, e.Name())
		if err := os.RemoveAll(path); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", path)
		}
	}
	return nil
}

// HasContent reports whether folder holds anything besides package markers.
func HasContent(folder string) bool {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return false
	}
	for _, e := range entries {
		switch e.Name() {
		case domain.PackageMarkerName, domain.RedirectMarkerName:
			continue
		default:
			return true
		}
	}
	return false
}

// CopyDir copies the tree at src into dst, creating dst as needed. Symlinks are recreated.
func CopyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, domain.DirPerm)
		case d.Type()&iofs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			_ = os.Remove(target)
			return os.Symlink(link, target)
		default:
			info, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src) //nolint:gosec // Source tree is chosen by the caller
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm) //nolint:gosec // Destination is inside the package folder
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

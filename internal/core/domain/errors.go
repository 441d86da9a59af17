package domain

import "go.trai.ch/zerr"

var (
	// ErrMissingManifest is returned when a module folder has no Build/Module.xml.
	ErrMissingManifest = zerr.New("module manifest not found")

	// ErrMissingProjects is returned when a module folder has no Build/Projects directory.
	ErrMissingProjects = zerr.New("project definition directory not found")

	// ErrManifestParseFailed is returned when a manifest or definition file is not valid XML.
	ErrManifestParseFailed = zerr.New("failed to parse module manifest")

	// ErrManifestWriteFailed is returned when the module manifest cannot be saved.
	ErrManifestWriteFailed = zerr.New("failed to write module manifest")

	// ErrPackageNotInManifest is returned when an operation targets a URI that the module does not declare.
	ErrPackageNotInManifest = zerr.New("package is not declared in the module manifest")

	// ErrInvalidPackageURI is returned when a package URI is empty or malformed.
	ErrInvalidPackageURI = zerr.New("invalid package URI")

	// ErrNoSourceForURI is returned when no source adapter accepts a URI.
	ErrNoSourceForURI = zerr.New("no package source accepts this URI")

	// ErrInvalidRedirect is returned when a redirect directive is not of the form ORIGINAL=TARGET.
	ErrInvalidRedirect = zerr.New("invalid redirect, expected ORIGINAL=TARGET")

	// ErrRedirectLoop is returned when following pointer markers revisits a folder.
	ErrRedirectLoop = zerr.New("redirect markers form a loop")

	// ErrFetchUnreachable is the sentinel for network and transport failures.
	ErrFetchUnreachable = zerr.New("package source unreachable")

	// ErrFetchAuth is the sentinel for rejected credentials.
	ErrFetchAuth = zerr.New("authentication to package source failed")

	// ErrFetchRefNotFound is the sentinel for a missing branch, tag, commit or version.
	ErrFetchRefNotFound = zerr.New("package reference not found")

	// ErrBinaryUnavailable is the sentinel for a package with no prebuilt archive for the platform.
	ErrBinaryUnavailable = zerr.New("no binary package available")

	// ErrSourceUnavailable is the sentinel for a package that cannot be checked out as source.
	ErrSourceUnavailable = zerr.New("no source checkout available")

	// ErrPackageResolveFailed is returned when a single package could not be resolved.
	ErrPackageResolveFailed = zerr.New("failed to resolve package")

	// ErrResolutionFailed is returned when one or more required packages failed to resolve.
	ErrResolutionFailed = zerr.New("package resolution failed")

	// ErrCleanFailed is returned when a package folder cannot be cleared before unpacking.
	ErrCleanFailed = zerr.New("failed to clean package folder")

	// ErrMarkerWriteFailed is returned when a .pkg or .redirect marker cannot be written.
	ErrMarkerWriteFailed = zerr.New("failed to write package marker")

	// ErrCacheMiss is returned when a requested item is not found in the cache.
	ErrCacheMiss = zerr.New("cache miss")

	// ErrCacheCreateFailed is returned when the cache directory cannot be created.
	ErrCacheCreateFailed = zerr.New("failed to create package cache directory")

	// ErrCacheWriteFailed is returned when an archive cannot be stored in the cache.
	ErrCacheWriteFailed = zerr.New("failed to write to package cache")

	// ErrUnrecognizedFormat is returned when an archive does not decode as any known format.
	ErrUnrecognizedFormat = zerr.New("unrecognized package format")

	// ErrUnsupportedFormat is returned when an archive format name is unknown.
	ErrUnsupportedFormat = zerr.New("unsupported archive format")

	// ErrArchiveWriteFailed is returned when writing an archive fails.
	ErrArchiveWriteFailed = zerr.New("failed to write archive")

	// ErrArchiveReadFailed is returned when reading an archive fails.
	ErrArchiveReadFailed = zerr.New("failed to read archive")

	// ErrUnsafeArchivePath is returned when an archive entry would escape the extraction root.
	ErrUnsafeArchivePath = zerr.New("archive entry escapes destination")

	// ErrEmptyPackage is returned when an archive holds nothing to extract for the platform.
	ErrEmptyPackage = zerr.New("package has no content for this platform")

	// ErrDedupIndexInvalid is returned when a _DedupIndex.txt line references missing content.
	ErrDedupIndexInvalid = zerr.New("invalid deduplication index")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrFilterParseFailed is returned when a package filter file has an invalid line.
	ErrFilterParseFailed = zerr.New("failed to parse package filter")

	// ErrFilterMatchCount is returned when a filter rule that must match exactly one file does not.
	ErrFilterMatchCount = zerr.New("filter rule must match exactly one file")

	// ErrPackFailed is returned when a package archive could not be produced.
	ErrPackFailed = zerr.New("failed to pack module")

	// ErrPushFailed is returned when the package repository rejects an upload.
	ErrPushFailed = zerr.New("failed to push package")

	// ErrRepositoryResponse is returned when the package repository answers with an error result.
	ErrRepositoryResponse = zerr.New("package repository returned an error")

	// ErrConfigReadFailed is returned when the settings file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the settings file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrSubmoduleInvokeFailed is returned when a submodule resolution process fails.
	ErrSubmoduleInvokeFailed = zerr.New("submodule resolution failed")
)

package epub

import "errors"

// Sentinel errors returned by the epub package.
var (
	// ErrMissingMimetype indicates the archive has no mimetype entry.
	ErrMissingMimetype = errors.New("epub: missing mimetype entry")

	// ErrInvalidMimetype indicates the mimetype entry exists but does not
	// declare "application/epub+zip".
	ErrInvalidMimetype = errors.New("epub: invalid mimetype")

	// ErrEntryNotFound indicates the requested entry does not exist
	// in the archive. Distinct from read failures on entries that do exist.
	ErrEntryNotFound = errors.New("epub: entry not found in archive")

	// ErrNoRootfiles indicates META-INF/container.xml declares no usable
	// rootfile entries.
	ErrNoRootfiles = errors.New("epub: container declares no rootfiles")

	// ErrNoPackagePath indicates no package document path could be
	// selected from the container.
	ErrNoPackagePath = errors.New("epub: no package document path")

	// ErrContainerParse indicates META-INF/container.xml is malformed.
	ErrContainerParse = errors.New("epub: malformed container document")

	// ErrPackageParse indicates the package document (.opf) is malformed.
	ErrPackageParse = errors.New("epub: malformed package document")

	// ErrNCXParse indicates the NCX navigation document is malformed.
	// Book methods treat this as a non-fatal condition; the error is
	// surfaced through the logger and the navigation tree is absent.
	ErrNCXParse = errors.New("epub: malformed ncx document")

	// ErrNoCover indicates no cover image could be detected
	// using any of the supported strategies.
	ErrNoCover = errors.New("epub: no cover image found")

	// ErrConfig indicates a tag configuration override could not be parsed.
	ErrConfig = errors.New("epub: invalid tag configuration")
)

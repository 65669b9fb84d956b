package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// maxDecompressSize is the maximum allowed decompressed size for a single
// archive entry. This guards against zip bomb attacks. Defaults to 256 MB.
const maxDecompressSize int64 = 256 * 1024 * 1024

// mimetypeEntry is the required first entry of a packaged book.
const mimetypeEntry = "mimetype"

// epubMimetype is the value the mimetype entry must declare.
const epubMimetype = "application/epub+zip"

// Archive is the storage collaborator the Book facade reads from.
// Implementations must be safe for concurrent use. ReadEntry returns an
// error matching ErrEntryNotFound when the named entry does not exist,
// so callers can distinguish absence from read failures.
type Archive interface {
	// ReadEntry returns the full contents of the named entry.
	ReadEntry(name string) ([]byte, error)

	// HasEntry reports whether the named entry exists.
	HasEntry(name string) bool

	// EntryNames returns all entry names in archive order.
	EntryNames() []string
}

// zipArchive adapts a zip.Reader to the Archive interface. The underlying
// reader is not safe for concurrent entry reads, so a single mutex is held
// for the duration of every read.
type zipArchive struct {
	mu    sync.Mutex
	zr    *zip.Reader
	index map[string]*zip.File
	names []string
}

func newZipArchive(zr *zip.Reader) *zipArchive {
	za := &zipArchive{
		zr:    zr,
		index: make(map[string]*zip.File, len(zr.File)),
		names: make([]string, 0, len(zr.File)),
	}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue // directory entry
		}
		if _, dup := za.index[f.Name]; !dup {
			za.index[f.Name] = f
			za.names = append(za.names, f.Name)
		}
	}
	return za
}

func (za *zipArchive) ReadEntry(name string) ([]byte, error) {
	za.mu.Lock()
	defer za.mu.Unlock()

	f := za.lookup(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	data, err := readZipEntry(f, maxDecompressSize)
	if err != nil {
		return nil, errors.Wrapf(err, "read entry %s", name)
	}
	return data, nil
}

func (za *zipArchive) HasEntry(name string) bool {
	za.mu.Lock()
	defer za.mu.Unlock()
	return za.lookup(name) != nil
}

func (za *zipArchive) EntryNames() []string {
	za.mu.Lock()
	defer za.mu.Unlock()
	out := make([]string, len(za.names))
	copy(out, za.names)
	return out
}

// lookup finds an entry by path, first trying an exact match, then falling
// back to a case-insensitive comparison. Callers must hold za.mu.
func (za *zipArchive) lookup(name string) *zip.File {
	if f, ok := za.index[name]; ok {
		return f
	}
	lower := strings.ToLower(name)
	for _, n := range za.names {
		if strings.ToLower(n) == lower {
			return za.index[n]
		}
	}
	return nil
}

// validateMimetype checks the mimetype marker entry. A missing entry and a
// wrong value are reported as distinct errors.
func validateMimetype(a Archive) error {
	data, err := a.ReadEntry(mimetypeEntry)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return ErrMissingMimetype
		}
		return errors.Wrap(err, "read mimetype")
	}
	if strings.TrimSpace(string(data)) != epubMimetype {
		return fmt.Errorf("%w: %q", ErrInvalidMimetype, strings.TrimSpace(string(data)))
	}
	return nil
}

// readZipEntry reads the full contents of a ZIP entry, enforcing limit to
// guard against zip bombs and rejecting entries whose path escapes the
// archive root.
func readZipEntry(f *zip.File, limit int64) ([]byte, error) {
	if !isSafePath(f.Name) {
		return nil, fmt.Errorf("unsafe entry path: %s", f.Name)
	}
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("entry %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// Read up to limit+1 to detect a forged declared size.
	lr := io.LimitReader(rc, limit+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("entry %s decompressed size exceeds limit (%d bytes)", f.Name, limit)
	}
	return data, nil
}

// isSafePath checks whether p is a safe archive-internal path that does not
// escape the root via path traversal.
func isSafePath(p string) bool {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return false
	}
	return true
}

// unescapeHref decodes percent-escapes in an href. Hrefs inside package and
// navigation documents are URLs; entry names in the archive are not.
func unescapeHref(href string) string {
	href = strings.TrimSpace(href)
	if decoded, err := url.PathUnescape(href); err == nil {
		return decoded
	}
	return href
}

// parentDir returns the directory part of an archive path: everything
// before the last '/', or "" for a bare name.
func parentDir(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i]
	}
	return ""
}

// joinPath joins dir and rel with '/' and normalizes the result component
// by component: "." is dropped, ".." pops the previous component when one
// exists and is otherwise dropped. The result always uses forward slashes.
func joinPath(dir, rel string) string {
	rel = unescapeHref(rel)
	var joined string
	if dir == "" {
		joined = rel
	} else {
		joined = dir + "/" + rel
	}
	parts := strings.Split(joined, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			// skip
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, part)
		}
	}
	return strings.Join(out, "/")
}

package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ncxProbePaths are the conventional NCX locations tried when neither the
// spine nor the manifest names one.
var ncxProbePaths = []string{
	"toc.ncx",
	"OEBPS/toc.ncx",
	"content/toc.ncx",
	"EPUB/toc.ncx",
}

// Option configures a Book.
type Option func(*Book)

// WithLogger sets the logger used for non-fatal degradations. The default
// logger discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Book) { b.logger = l }
}

// WithTagConfig sets the metadata tag configuration.
func WithTagConfig(cfg TagConfig) Option {
	return func(b *Book) { b.cfg = cfg }
}

// Book is the facade over one publication. Structural documents are parsed
// lazily: the first accessor that needs one parses it, concurrent callers
// wait, and every later call reads the cached result. All derived values
// are immutable once computed.
//
// A missing or malformed NCX is not an error: navigation accessors report
// absence and the failure is logged.
type Book struct {
	archive Archive
	logger  *zap.Logger
	cfg     TagConfig
	closer  io.Closer

	containerOnce sync.Once
	containerVal  *Container
	containerErr  error

	pkgOnce sync.Once
	pkgVal  *PackageDocument
	pkgErr  error

	ncxOnce sync.Once
	ncxVal  *NCX
	ncxPath string
	ncxDir  string
}

// Open opens the book at path.
func Open(path string, opts ...Option) (*Book, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "epub: open %s", path)
	}
	b, err := NewBook(newZipArchive(&zr.Reader), opts...)
	if err != nil {
		zr.Close()
		return nil, err
	}
	b.closer = zr
	return b, nil
}

// NewReader reads a book from r.
func NewReader(r io.ReaderAt, size int64, opts ...Option) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, errors.Wrap(err, "epub: read archive")
	}
	return NewBook(newZipArchive(zr), opts...)
}

// NewBook wraps an existing Archive. The mimetype marker is validated
// here; a missing or wrong marker is fatal. DRM markers are only logged.
func NewBook(a Archive, opts ...Option) (*Book, error) {
	b := &Book{
		archive: a,
		logger:  zap.NewNop(),
		cfg:     DefaultTagConfig(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := validateMimetype(a); err != nil {
		return nil, err
	}
	b.checkDRM()
	return b, nil
}

// Close releases the underlying file, when the Book owns one.
func (b *Book) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// Container returns the parsed container manifest.
func (b *Book) Container() (*Container, error) {
	b.containerOnce.Do(func() {
		data, err := b.archive.ReadEntry(containerPath)
		if err != nil {
			b.containerErr = errors.Wrap(err, "epub: read container")
			return
		}
		b.containerVal, b.containerErr = parseContainerDoc(data)
	})
	return b.containerVal, b.containerErr
}

// PackagePath returns the selected package document path.
func (b *Book) PackagePath() (string, error) {
	c, err := b.Container()
	if err != nil {
		return "", err
	}
	path, ok := c.PackagePath()
	if !ok {
		return "", ErrNoPackagePath
	}
	return path, nil
}

// PackageDoc returns the parsed package document.
func (b *Book) PackageDoc() (*PackageDocument, error) {
	b.pkgOnce.Do(func() {
		path, err := b.PackagePath()
		if err != nil {
			b.pkgErr = err
			return
		}
		data, err := b.archive.ReadEntry(path)
		if err != nil {
			b.pkgErr = errors.Wrapf(err, "epub: read package document %s", path)
			return
		}
		b.pkgVal, b.pkgErr = parsePackageDoc(data, b.cfg)
	})
	return b.pkgVal, b.pkgErr
}

// Metadata returns the package metadata store.
func (b *Book) Metadata() (*MetadataStore, error) {
	pkg, err := b.PackageDoc()
	if err != nil {
		return nil, err
	}
	return pkg.Metadata, nil
}

// Version returns the package version string.
func (b *Book) Version() (string, error) {
	pkg, err := b.PackageDoc()
	if err != nil {
		return "", err
	}
	return pkg.Version, nil
}

// packageDir returns the directory of the package document, or "" when
// the package path cannot be determined.
func (b *Book) packageDir() string {
	path, err := b.PackagePath()
	if err != nil {
		return ""
	}
	return parentDir(path)
}

// resolvePackagePath joins an href with the package directory.
func (b *Book) resolvePackagePath(href string) string {
	return joinPath(b.packageDir(), href)
}

// NCX returns the parsed NCX navigation document. ok is false when the
// book has none or it could not be read or parsed; those failures are
// logged, never returned.
func (b *Book) NCX() (*NCX, bool) {
	b.ncxOnce.Do(func() {
		path, ok := b.findNCXPath()
		if !ok {
			return
		}
		data, err := b.archive.ReadEntry(path)
		if err != nil {
			b.logger.Warn("ncx unreadable, navigation disabled",
				zap.String("path", path), zap.Error(err))
			return
		}
		ncx, err := parseNCXDoc(data)
		if err != nil {
			b.logger.Warn("ncx unparseable, navigation disabled",
				zap.String("path", path), zap.Error(err))
			return
		}
		b.ncxVal = ncx
		b.ncxPath = path
		b.ncxDir = parentDir(path)
	})
	return b.ncxVal, b.ncxVal != nil
}

// findNCXPath locates the NCX: the spine toc reference first, then any
// manifest item with the NCX media type or extension, then conventional
// locations.
func (b *Book) findNCXPath() (string, bool) {
	pkg, err := b.PackageDoc()
	if err == nil {
		if pkg.SpineTocRef != "" {
			if it, ok := pkg.Item(pkg.SpineTocRef); ok {
				return b.resolvePackagePath(it.Href), true
			}
		}
		for _, it := range pkg.ManifestItems() {
			if it.MediaType == "application/x-dtbncx+xml" ||
				strings.HasSuffix(strings.ToLower(it.Href), ".ncx") {
				return b.resolvePackagePath(it.Href), true
			}
		}
	}
	for _, p := range ncxProbePaths {
		if b.archive.HasEntry(p) {
			return p, true
		}
	}
	return "", false
}

// HasNCX reports whether an NCX document is available.
func (b *Book) HasNCX() bool {
	_, ok := b.NCX()
	return ok
}

// TocTree builds the navigation tree from the NCX. ok is false when the
// book has no usable NCX.
func (b *Book) TocTree() (*TocTree, bool) {
	ncx, ok := b.NCX()
	if !ok {
		return nil, false
	}
	return NewTocTree(ncx), true
}

// HasTocTree reports whether a navigation tree can be built.
func (b *Book) HasTocTree() bool { return b.HasNCX() }

// NavTocTree builds a navigation tree from the EPUB 3 nav document.
// ok is false when the book has none or it could not be used; those
// failures are logged, never returned.
func (b *Book) NavTocTree() (*TocTree, bool) {
	pkg, err := b.PackageDoc()
	if err != nil {
		return nil, false
	}
	href, ok := pkg.NavPath()
	if !ok {
		return nil, false
	}
	path := b.resolvePackagePath(href)
	data, err := b.archive.ReadEntry(path)
	if err != nil {
		b.logger.Warn("nav document unreadable",
			zap.String("path", path), zap.Error(err))
		return nil, false
	}
	tree, err := parseNavDoc(data)
	if err != nil {
		b.logger.Warn("nav document unparseable",
			zap.String("path", path), zap.Error(err))
		return nil, false
	}
	// nav srcs are relative to the nav document itself
	navDir := parentDir(path)
	resolveTocSrcs(tree.Roots, navDir)
	return tree, true
}

func resolveTocSrcs(nodes []*TocTreeNode, dir string) {
	for _, n := range nodes {
		if n.Src != "" {
			n.Src = joinPath(dir, stripFragment(n.Src))
		}
		resolveTocSrcs(n.Children, dir)
	}
}

// ResolveContentPath resolves a navigation src to an archive path. The
// base is the NCX directory when the book has an NCX, the package
// directory otherwise.
func (b *Book) ResolveContentPath(src string) (string, error) {
	src = stripFragment(strings.TrimSpace(src))
	if _, ok := b.NCX(); ok {
		return joinPath(b.ncxDir, src), nil
	}
	if _, err := b.PackagePath(); err != nil {
		return "", err
	}
	return joinPath(b.packageDir(), src), nil
}

// BookInfo is the summary most callers want.
type BookInfo struct {
	Title       string
	Authors     []string
	Language    string
	Publisher   string
	ISBN        string
	Description string
}

// BookInfo assembles the summary from the package metadata.
func (b *Book) BookInfo() (BookInfo, error) {
	md, err := b.Metadata()
	if err != nil {
		return BookInfo{}, err
	}
	info := BookInfo{
		Title:       md.Title(),
		Language:    md.Language(),
		Publisher:   md.Publisher(),
		Description: md.Description(),
	}
	if info.Title == "" {
		info.Title = "Unknown Title"
	}
	for _, c := range md.Creators() {
		info.Authors = append(info.Authors, c.Name)
	}
	for _, id := range md.Identifiers() {
		if strings.EqualFold(id.Scheme, "isbn") ||
			strings.HasPrefix(strings.ToLower(id.Value), "urn:isbn:") {
			info.ISBN = strings.TrimPrefix(strings.TrimPrefix(id.Value, "urn:isbn:"), "URN:ISBN:")
			break
		}
	}
	return info, nil
}

// ChapterInfo describes one reading-order entry.
type ChapterInfo struct {
	Index int
	Title string
	Path  string
}

// Chapter is a reading-order entry with its raw content.
type Chapter struct {
	ChapterInfo
	Content []byte
}

// ChapterList returns the linear reading order. Titles come from the NCX
// when one is available; entries without a title get "Chapter N".
func (b *Book) ChapterList() ([]ChapterInfo, error) {
	pkg, err := b.PackageDoc()
	if err != nil {
		return nil, err
	}

	titles := make(map[string]string)
	if ncx, ok := b.NCX(); ok {
		for _, p := range ncx.AllNavPoints() {
			if p.Src == "" || p.Label == "" {
				continue
			}
			path := joinPath(b.ncxDir, stripFragment(p.Src))
			if _, seen := titles[path]; !seen {
				titles[path] = p.Label
			}
		}
	}

	var out []ChapterInfo
	for i, href := range pkg.ChapterPaths() {
		path := b.resolvePackagePath(href)
		title := titles[path]
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		out = append(out, ChapterInfo{Index: i, Title: title, Path: path})
	}
	return out, nil
}

// ReadChapter reads the content of one chapter.
func (b *Book) ReadChapter(info ChapterInfo) (Chapter, error) {
	data, err := b.archive.ReadEntry(info.Path)
	if err != nil {
		return Chapter{}, err
	}
	return Chapter{ChapterInfo: info, Content: data}, nil
}

// Chapters reads every chapter in reading order. Chapters that cannot be
// read are logged and skipped.
func (b *Book) Chapters() ([]Chapter, error) {
	infos, err := b.ChapterList()
	if err != nil {
		return nil, err
	}
	var out []Chapter
	for _, info := range infos {
		ch, err := b.ReadChapter(info)
		if err != nil {
			b.logger.Warn("chapter unreadable, skipped",
				zap.String("path", info.Path), zap.Error(err))
			continue
		}
		out = append(out, ch)
	}
	return out, nil
}

// Images returns the archive paths of all manifest images.
func (b *Book) Images() ([]string, error) {
	pkg, err := b.PackageDoc()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, href := range pkg.ImagePaths() {
		out = append(out, b.resolvePackagePath(href))
	}
	return out, nil
}

// ImageData reads one image by archive path.
func (b *Book) ImageData(path string) ([]byte, error) {
	return b.archive.ReadEntry(path)
}

// FileList returns every entry name in archive order.
func (b *Book) FileList() []string {
	return b.archive.EntryNames()
}

// ReadFile reads an arbitrary entry by archive path.
func (b *Book) ReadFile(name string) ([]byte, error) {
	return b.archive.ReadEntry(name)
}

// stripFragment returns the href with the fragment (#...) removed.
func stripFragment(href string) string {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i]
	}
	return href
}

package epub

import (
	"bytes"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// CoverImage is a detected cover: raw bytes plus whatever could be learned
// about them. Width and Height are 0 when the image could not be decoded.
type CoverImage struct {
	Data     []byte
	Format   string
	Filename string
	Path     string
	Width    int
	Height   int
}

// imageExtensions are the file extensions treated as images when scanning
// archive entries.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}

// coverFilenames are the conventional cover file names probed inside the
// package directory.
var coverFilenames = []string{
	"cover.jpg", "cover.jpeg", "cover.png", "cover.gif",
	"Cover.jpg", "Cover.jpeg", "Cover.png", "Cover.gif",
}

// Cover detects and returns the cover image. Strategies are tried in
// priority order:
//  1. manifest item with the cover-image property
//  2. cover metadata field, resolved as a manifest id, else as a path
//  3. "cover" key in the unconfigured metadata, resolved the same way
//  4. conventional cover file names in the package directory
//  5. first manifest item with an image media type
//  6. first archive entry with an image extension
//
// A candidate that cannot be read falls through to the next strategy.
// Returns ErrNoCover if no strategy succeeds.
func (b *Book) Cover() (*CoverImage, error) {
	pkg, err := b.PackageDoc()
	if err != nil {
		return nil, err
	}

	var candidates []string

	if href, ok := pkg.CoverImagePath(); ok {
		candidates = append(candidates, b.resolvePackagePath(href))
	}

	if ref := pkg.Metadata.Cover(); ref != "" {
		candidates = append(candidates, b.coverRefPaths(pkg, ref)...)
	}

	if ref := pkg.Metadata.Other()["cover"]; ref != "" {
		candidates = append(candidates, b.coverRefPaths(pkg, ref)...)
	}

	for _, name := range coverFilenames {
		candidates = append(candidates, b.resolvePackagePath(name))
	}

	for _, it := range pkg.ManifestItems() {
		if it.IsImage() {
			candidates = append(candidates, b.resolvePackagePath(it.Href))
			break
		}
	}

	for _, name := range b.archive.EntryNames() {
		if isImageFile(name) {
			candidates = append(candidates, name)
			break
		}
	}

	for _, path := range candidates {
		if path == "" || !b.archive.HasEntry(path) {
			continue
		}
		data, err := b.archive.ReadEntry(path)
		if err != nil {
			continue
		}
		return newCoverImage(data, path), nil
	}
	return nil, ErrNoCover
}

// coverRefPaths expands a cover metadata reference into candidate archive
// paths: as a manifest id first, then as a literal path.
func (b *Book) coverRefPaths(pkg *PackageDocument, ref string) []string {
	var out []string
	if it, ok := pkg.Item(ref); ok {
		out = append(out, b.resolvePackagePath(it.Href))
	}
	out = append(out, b.resolvePackagePath(ref), ref)
	return out
}

func newCoverImage(data []byte, path string) *CoverImage {
	c := &CoverImage{
		Data:     data,
		Path:     path,
		Filename: baseName(path),
		Format:   detectImageFormat(data, path),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		c.Width = cfg.Width
		c.Height = cfg.Height
	}
	return c
}

// detectImageFormat identifies the image format from magic bytes, falling
// back to the lowercased file extension.
func detectImageFormat(data []byte, path string) string {
	switch {
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8:
		return "jpeg"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "png"
	case len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))):
		return "gif"
	}
	if i := strings.LastIndex(path, "."); i >= 0 {
		return strings.ToLower(path[i+1:])
	}
	return ""
}

// isImageFile reports whether the file name carries an image extension.
func isImageFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// baseName returns the final path component.
func baseName(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

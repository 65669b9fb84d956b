// Package epub parses the structure of ePub 2 and ePub 3 files: the
// container manifest, the package document (metadata, manifest, spine),
// the NCX navigation map, and the cover image.
//
// # Opening a book
//
// Use [Open] to open a file by path, or [NewReader] to read from an
// [io.ReaderAt]. [NewBook] accepts any [Archive] implementation:
//
//	book, err := epub.Open("book.epub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer book.Close()
//
// Structural documents are parsed lazily on first access and cached; a
// Book is safe for concurrent use.
//
// # Metadata
//
// [Book.Metadata] returns a [MetadataStore]. Semantic accessors (Title,
// Creators, Identifiers, ...) resolve fields through a configurable tag
// mapping, so producers using non-standard tag names can be supported
// via [WithTagConfig]:
//
//	md, _ := book.Metadata()
//	fmt.Println(md.Title(), md.Creators())
//
// Every recorded fact keeps its expression form: Dublin Core elements,
// name/content metas, property metas, and refinements are distinct
// [MetadataValue] variants, and refinements are queryable by target id.
//
// # Navigation
//
// [Book.TocTree] builds a navigable tree from the NCX, with nodes
// addressable by index paths. [Book.NavTocTree] does the same from the
// ePub 3 nav document. A missing or broken navigation document is never
// an error: the accessors report absence and the condition is logged
// through the logger set with [WithLogger].
//
//	if tree, ok := book.TocTree(); ok {
//	    fmt.Print(tree)
//	}
//
// # Cover
//
// [Book.Cover] tries the declared cover properties and metadata first,
// then conventional file names and manifest heuristics. It returns
// [ErrNoCover] when every strategy fails.
//
// # Errors
//
// Fatal conditions carry sentinel errors matchable with [errors.Is]:
// [ErrMissingMimetype], [ErrInvalidMimetype], [ErrContainerParse],
// [ErrNoRootfiles], [ErrNoPackagePath], [ErrPackageParse],
// [ErrEntryNotFound], [ErrNoCover].
package epub

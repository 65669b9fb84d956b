package epub_test

import (
	"fmt"
	"log"

	"github.com/booklab-go/epub"
)

func Example() {
	book, err := epub.Open("testdata/book.epub")
	if err != nil {
		log.Fatal(err)
	}
	defer book.Close()

	info, err := book.BookInfo()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(info.Title, info.Authors)

	if tree, ok := book.TocTree(); ok {
		fmt.Print(tree)
	}
}

func ExampleBook_Cover() {
	book, err := epub.Open("testdata/book.epub")
	if err != nil {
		log.Fatal(err)
	}
	defer book.Close()

	cover, err := book.Cover()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(cover.Filename, cover.Format, cover.Width, cover.Height)
}

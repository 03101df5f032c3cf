package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document wraps a parsed page tree together with the URL it was loaded
// from. The URL namespaces cache keys so entries from a previous page can
// never satisfy lookups on the current one.
type Document struct {
	Root *html.Node
	URL  string
}

// Parse reads an HTML document from r.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{Root: root, URL: pageURL}, nil
}

// ParseString parses an HTML document held in memory.
func ParseString(src, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(src), pageURL)
}

// Render serializes the current tree back to HTML.
func (d *Document) Render(w io.Writer) error {
	if err := html.Render(w, d.Root); err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	return nil
}

// HTML returns the serialized tree as a string.
func (d *Document) HTML() (string, error) {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Body returns the document's body element, or the root when the tree has
// no body (fragments parsed for tests still get one from the HTML5 parser).
func (d *Document) Body() *html.Node {
	var body *html.Node
	Walk(d.Root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "body" {
			body = n
			return false
		}
		return true
	})
	if body == nil {
		return d.Root
	}
	return body
}

// Package filters provides the built-in capsule filters.
package filters

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser parses an HTML fragment into its top-level nodes.
// Implementations must be safe for concurrent use.
type HTMLParser interface {
	ParseFragment(text string) ([]*html.Node, error)
}

// NetHTMLParser parses fragments with golang.org/x/net/html as if they
// appeared inside a <body> element.
type NetHTMLParser struct{}

// Compile-time interface check.
var _ HTMLParser = (*NetHTMLParser)(nil)

// ParseFragment implements HTMLParser.
func (p *NetHTMLParser) ParseFragment(text string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(text), body)
}

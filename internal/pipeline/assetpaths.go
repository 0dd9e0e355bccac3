package pipeline

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ResolveAssetPaths rewrites relative image sources and link targets in an
// HTML page to file:// URLs rooted at baseDir, so a preview written to
// another directory still finds the images next to its Markdown source.
// URLs, anchors, absolute paths and paths leaving baseDir are not touched.
// An empty baseDir returns the page unchanged.
func ResolveAssetPaths(page, baseDir string) (string, error) {
	if baseDir == "" {
		return page, nil
	}
	root, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("resolving base directory: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parsing preview: %w", err)
	}
	resolveNode(doc, root)

	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return "", fmt.Errorf("rendering preview: %w", err)
	}
	return b.String(), nil
}

func resolveNode(n *html.Node, root string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			resolveAttr(n, "src", root)
		case atom.A:
			resolveAttr(n, "href", root)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		resolveNode(c, root)
	}
}

func resolveAttr(n *html.Node, key, root string) {
	for i := range n.Attr {
		if n.Attr[i].Key != key || !isLocalRelative(n.Attr[i].Val) {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(n.Attr[i].Val))
		if !within(target, root) {
			continue
		}
		n.Attr[i].Val = (&url.URL{Scheme: "file", Path: filepath.ToSlash(target)}).String()
	}
}

// isLocalRelative reports whether ref is a relative filesystem path.
func isLocalRelative(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") || filepath.IsAbs(ref) {
		return false
	}
	if u, err := url.Parse(ref); err != nil || u.Scheme != "" {
		return false
	}
	return true
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

package pipeline

import (
	"github.com/yuin/goldmark/ast"
)

// ScanResult is what the first pass learns about a document's images.
type ScanResult struct {
	// Pending lists image URLs not yet resolved, in first-seen order,
	// without duplicates.
	Pending []string

	// Alts maps an image URL to its decoded alt text. Only the first text
	// node of an image is captured; rich alt text such as "a *b* c" yields
	// "a ". A URL used by several images keeps the alt of the first one.
	Alts map[string]string
}

// Scan walks doc once and collects its pending images and alt text.
// resolved reports URLs that already have a destination; it may be nil.
// Scan produces no output document.
func Scan(doc ast.Node, source []byte, resolved func(url string) bool) ScanResult {
	res := ScanResult{
		Pending: []string{},
		Alts:    map[string]string{},
	}
	pending := make(map[string]bool)

	// current holds the URL of the image whose alt text is still expected.
	var current string
	capturing := false

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Image:
			if !entering {
				capturing = false
				return ast.WalkContinue, nil
			}

			url := string(node.Destination)
			if !pending[url] && (resolved == nil || !resolved(url)) {
				pending[url] = true
				res.Pending = append(res.Pending, url)
			}
			current = url
			capturing = true

		case *ast.Text:
			if entering && capturing {
				if _, seen := res.Alts[current]; !seen {
					res.Alts[current] = string(decodeText(node.Segment.Value(source)))
				}
				capturing = false
			}
		}
		return ast.WalkContinue, nil
	})

	return res
}

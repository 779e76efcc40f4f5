package htmldoc

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/syntrixbase/searchnav/internal/page"
)

// Region is an element whose children are replaced by fetched markup.
type Region struct {
	node   *html.Node
	logger *slog.Logger
}

var _ page.Region = (*Region)(nil)

// Clear implements page.Region.
func (r *Region) Clear() {
	for r.node.FirstChild != nil {
		r.node.RemoveChild(r.node.FirstChild)
	}
}

// AppendHTML implements page.Region.
func (r *Region) AppendHTML(fragment string) error {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), r.node)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	for _, n := range nodes {
		r.node.AppendChild(n)
	}
	return nil
}

// HTML implements page.Region.
func (r *Region) HTML() string {
	var sb strings.Builder
	for c := r.node.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			r.logger.Warn("Failed to render region", "error", err)
			break
		}
	}
	return sb.String()
}

// SetBusy implements page.Region.
func (r *Region) SetBusy(busy bool) {
	if busy {
		setAttr(r.node, "aria-busy", "true")
		return
	}
	removeAttr(r.node, "aria-busy")
}

// Busy reports whether the region is marked as loading.
func (r *Region) Busy() bool {
	v, _ := getAttr(r.node, "aria-busy")
	return v == "true"
}

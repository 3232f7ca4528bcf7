// Package view exposes asset tag helpers to gee templates:
//
//	{{ .Assets.JavascriptIncludeTag "application" }}
//	{{ .Assets.StylesheetLinkTag "application" "print" }}
//
// Sources go through assets.Rewriter first, so behind the API gateway they
// point at the asset bucket.
package view

import (
	"context"
	"html/template"
	"net/http"
	"path"
	"strings"

	"assethost.local/gee"
	"assethost.local/internal/app/assets"
)

// Helper builds per-request Tags around a shared rewriter.
type Helper struct {
	rewriter *assets.Rewriter
}

func NewHelper(rewriter *assets.Rewriter) *Helper {
	return &Helper{rewriter: rewriter}
}

// For returns the tags for the request being served by ctx.
func (h *Helper) For(ctx *gee.Context) *Tags {
	return h.ForRequest(ctx.Req)
}

func (h *Helper) ForRequest(req *http.Request) *Tags {
	return &Tags{
		ctx:      req.Context(),
		host:     req.Host,
		rewriter: h.rewriter,
	}
}

// Tags renders script and stylesheet tags for one request. Methods return
// an error instead of a fallback url so template execution stops when the
// asset host cannot be resolved.
type Tags struct {
	ctx      context.Context
	host     string
	rewriter *assets.Rewriter
}

func (t *Tags) JavascriptIncludeTag(sources ...string) (template.HTML, error) {
	urls, err := t.rewriter.JavascriptSources(t.ctx, t.host, withExtensions(sources, assets.Script)...)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, u := range urls {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(`<script src="`)
		b.WriteString(template.HTMLEscapeString(u))
		b.WriteString(`"></script>`)
	}
	return template.HTML(b.String()), nil
}

func (t *Tags) StylesheetLinkTag(sources ...string) (template.HTML, error) {
	urls, err := t.rewriter.StylesheetSources(t.ctx, t.host, withExtensions(sources, assets.Stylesheet)...)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for i, u := range urls {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(`<link rel="stylesheet" media="screen" href="`)
		b.WriteString(template.HTMLEscapeString(u))
		b.WriteString(`" />`)
	}
	return template.HTML(b.String()), nil
}

func withExtensions(sources []string, category assets.Category) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = withExtension(s, category)
	}
	return out
}

// withExtension appends the category extension to local references
// without one: "application" -> "application.js". Query and fragment are
// kept after the extension.
func withExtension(ref string, category assets.Category) string {
	if ref == "" || assets.IsAbsoluteURL(ref) {
		return ref
	}
	p, suffix := ref, ""
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		p, suffix = ref[:i], ref[i:]
	}
	if path.Ext(p) != "" || strings.HasSuffix(p, "/") {
		return ref
	}
	return p + category.Extension() + suffix
}

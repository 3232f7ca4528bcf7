package assets

import (
	"context"
	"strings"

	"assethost.local/internal/platform/metrics"
)

// BaseURLSource yields the remote asset prefix, e.g.
// https://us-west-2-s3.aws.amazon.com/demo-dev-s3bucket-1jg5o076egkk4/public
type BaseURLSource interface {
	Resolve(ctx context.Context) (string, error)
}

// Rewriter maps asset references written in views to the url the browser
// should load. Behind the API gateway that is the public prefix of the
// asset bucket, everywhere else the local path.
type Rewriter struct {
	source        BaseURLSource
	gatewayDomain string
}

// NewRewriter returns a rewriter that treats requests whose host contains
// gatewayDomain as served through the gateway. An empty gatewayDomain
// disables remote rewriting.
func NewRewriter(source BaseURLSource, gatewayDomain string) *Rewriter {
	return &Rewriter{
		source:        source,
		gatewayDomain: gatewayDomain,
	}
}

// Rewrite returns the url for ref as seen from a request to host.
//
//	"assets/app.js"        -> "/javascripts/assets/app.js"
//	"/packs/app-abc.js"    -> "<base>/packs/app-abc.js"   (gateway host)
//	"http://cdn/app.js"    -> "http://cdn/app.js"
//
// The category segment is added before the base url so it always sits
// right after "/public".
func (r *Rewriter) Rewrite(ctx context.Context, ref string, category Category, host string) (string, error) {
	path := ref
	if !isRooted(ref) && !IsAbsoluteURL(ref) {
		path = "/" + category.Segment() + "/" + ref
	}

	if !r.IsRemote(host, path) {
		mode := "local"
		if IsAbsoluteURL(path) {
			mode = "absolute"
		}
		metrics.AssetRewrites.WithLabelValues(category.Segment(), mode).Inc()
		return path, nil
	}

	base, err := r.source.Resolve(ctx)
	if err != nil {
		return "", err
	}
	metrics.AssetRewrites.WithLabelValues(category.Segment(), "remote").Inc()
	return base + path, nil
}

// RewriteAll rewrites every source in order and stops at the first error.
func (r *Rewriter) RewriteAll(ctx context.Context, refs []string, category Category, host string) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		u, err := r.Rewrite(ctx, ref, category, host)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

// JavascriptSources rewrites the sources of a script include tag.
func (r *Rewriter) JavascriptSources(ctx context.Context, host string, refs ...string) ([]string, error) {
	return r.RewriteAll(ctx, refs, Script, host)
}

// StylesheetSources rewrites the sources of a stylesheet link tag.
func (r *Rewriter) StylesheetSources(ctx context.Context, host string, refs ...string) ([]string, error) {
	return r.RewriteAll(ctx, refs, Stylesheet, host)
}

// IsRemote reports whether path, requested through host, must be served
// from the asset bucket.
func (r *Rewriter) IsRemote(host, path string) bool {
	if r.gatewayDomain == "" {
		return false
	}
	return strings.Contains(host, r.gatewayDomain) &&
		isRooted(path) &&
		!IsAbsoluteURL(path)
}

func isRooted(ref string) bool {
	return strings.HasPrefix(ref, "/") && !strings.HasPrefix(ref, "//")
}

// IsAbsoluteURL reports whether ref already names a full location:
// "scheme://..." or a protocol relative "//host/...".
func IsAbsoluteURL(ref string) bool {
	if strings.HasPrefix(ref, "//") {
		return true
	}
	i := strings.Index(ref, "://")
	if i <= 0 {
		return false
	}
	for j, c := range ref[:i] {
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case j > 0 && ('0' <= c && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

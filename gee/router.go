package gee

import (
	"net/http"
	"sort"
	"strings"
)

type HandlerFunc func(*Context)

// RouteInfo describes one registered route.
type RouteInfo struct {
	Method  string
	Pattern string
}

type router struct {
	roots    map[string]*node
	handlers map[string][]HandlerFunc
}

// roots: one trie per method, roots["GET"]
// handlers: keyed by method and pattern, handlers["GET-/javascripts/*filepath"]

func newRouter() *router {
	return &router{
		handlers: make(map[string][]HandlerFunc),
		roots:    make(map[string]*node),
	}
}

func routeKey(method, pattern string) string {
	return method + "-" + pattern
}

// parsePattern splits a pattern or request path into segments. Segments
// after a catch-all are dropped.
func parsePattern(pattern string) []string {
	vs := strings.Split(pattern, "/")

	parts := make([]string, 0, len(vs))
	for _, item := range vs {
		if item == "" {
			continue
		}
		parts = append(parts, item)
		if item[0] == '*' {
			break
		}
	}
	return parts
}

func (r *router) addRoute(method string, pattern string, handlers ...HandlerFunc) {
	if len(handlers) == 0 {
		panic("gee: addRoute requires at least one handler")
	}
	root, ok := r.roots[method]
	if !ok {
		root = &node{}
		r.roots[method] = root
	}
	root.insert(pattern, parsePattern(pattern), 0)
	r.handlers[routeKey(method, pattern)] = append([]HandlerFunc(nil), handlers...)
}

func (r *router) getRoute(method string, path string) (*node, map[string]string) {
	root, ok := r.roots[method]
	if !ok {
		return nil, nil
	}
	searchParts := parsePattern(path)
	n := root.search(searchParts, 0)
	if n == nil {
		return nil, nil
	}

	params := make(map[string]string)
	for index, part := range parsePattern(n.pattern) {
		if part[0] == ':' {
			params[part[1:]] = searchParts[index]
		}
		if part[0] == '*' && len(part) > 1 {
			params[part[1:]] = strings.Join(searchParts[index:], "/")
			break
		}
	}
	return n, params
}

// lookup finds the route for method, letting HEAD use a GET route when no
// HEAD route is registered. The returned method is the one matched.
func (r *router) lookup(method, path string) (*node, map[string]string, string) {
	if n, params := r.getRoute(method, path); n != nil {
		return n, params, method
	}
	if method == http.MethodHead {
		if n, params := r.getRoute(http.MethodGet, path); n != nil {
			return n, params, http.MethodGet
		}
	}
	return nil, nil, method
}

func (r *router) handle(c *Context) {
	n, params, matched := r.lookup(c.Method, c.Path)
	if n != nil {
		c.Params = params
		c.RoutePattern = n.pattern
		if matched != c.Method {
			c.Writer.discardBody = true
		}
		c.handlers = append(c.handlers, r.handlers[routeKey(matched, n.pattern)]...)
	} else {
		allow := r.AllowedMethod(c.Path)
		if len(allow) == 0 {
			c.handlers = append(c.handlers, c.engine.noRoute...)
		} else {
			c.SetHeader("Allow", strings.Join(allow, ","))
			c.handlers = append(c.handlers, c.engine.noMethod...)
		}
	}
	c.Next()
}

// AllowedMethod lists the methods that have a route for path. HEAD is
// implied by GET.
func (r *router) AllowedMethod(path string) (allow []string) {
	seen := make(map[string]bool)
	for method := range r.roots {
		if n, _ := r.getRoute(method, path); n != nil {
			seen[method] = true
		}
	}
	if seen[http.MethodGet] {
		seen[http.MethodHead] = true
	}
	for method := range seen {
		allow = append(allow, method)
	}
	sort.Strings(allow)
	return allow
}

func (r *router) routes() []RouteInfo {
	var out []RouteInfo
	for method, root := range r.roots {
		var leaves []*node
		root.travel(&leaves)
		for _, n := range leaves {
			out = append(out, RouteInfo{Method: method, Pattern: n.pattern})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pattern != out[j].Pattern {
			return out[i].Pattern < out[j].Pattern
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// Package router resolves CLI paths to views and applies the navigation guard.
package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/shiftdesk/shiftdesk/internal/cli/session"
)

// Well-known paths used by the guard
const (
	HomePath  = "/"
	LoginPath = "/login"
)

var (
	// ErrNotFound is returned when no route matches a path
	ErrNotFound = errors.New("route not found")

	// ErrNoView is returned when a route has neither a view nor a factory
	ErrNoView = errors.New("route has no view")
)

// Request is what a view receives when it is rendered
type Request struct {
	Path   string
	Params map[string]string
	Query  url.Values
	// From is set when the guard redirected here from another path
	From string
}

// View renders one screen
type View interface {
	Render(ctx context.Context, w io.Writer, req Request) error
}

// ViewFunc adapts a function to View
type ViewFunc func(ctx context.Context, w io.Writer, req Request) error

// Render calls f
func (f ViewFunc) Render(ctx context.Context, w io.Writer, req Request) error {
	return f(ctx, w, req)
}

// Meta holds the access requirements of a route
type Meta struct {
	RequiresAuth  bool
	RequiresAdmin bool
}

// Route maps a path pattern to a view. Lazy routes build their view on first use.
type Route struct {
	Path string
	Name string
	View View
	Lazy func() View
	Meta Meta
}

// Action is the outcome of the guard
type Action int

const (
	Proceed Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "proceed"
}

// Decision is the guard result for one navigation
type Decision struct {
	Action Action
	// To is the path that gets rendered
	To string
	// RedirectFrom is the requested path when Action is Redirect
	RedirectFrom string
}

// Guard decides whether a navigation to route may proceed for the given session
func Guard(to Route, s session.Session, ok bool) Decision {
	if to.Meta.RequiresAdmin && (!ok || !s.IsAdmin) {
		target := LoginPath
		if ok {
			target = HomePath
		}
		return Decision{Action: Redirect, To: target}
	}
	if to.Meta.RequiresAuth && !ok {
		return Decision{Action: Redirect, To: LoginPath}
	}
	return Decision{Action: Proceed}
}

// AfterEachFunc observes every navigation decision. requested is the route
// that was navigated to; on a redirect the rendered path is d.To.
type AfterEachFunc func(requested Route, d Decision)

type entry struct {
	route    Route
	segments []string

	once sync.Once
	view View
}

func (e *entry) resolve() View {
	e.once.Do(func() {
		if e.route.View != nil {
			e.view = e.route.View
			return
		}
		if e.route.Lazy != nil {
			e.view = e.route.Lazy()
		}
	})
	return e.view
}

func (e *entry) match(segments []string) (map[string]string, bool) {
	if len(segments) != len(e.segments) {
		return nil, false
	}
	params := map[string]string{}
	for i, pattern := range e.segments {
		if strings.HasPrefix(pattern, ":") {
			if segments[i] == "" {
				return nil, false
			}
			params[pattern[1:]] = segments[i]
			continue
		}
		if pattern != segments[i] {
			return nil, false
		}
	}
	return params, true
}

// Router owns the route table and renders views to out
type Router struct {
	entries []*entry
	store   *session.Store
	out     io.Writer

	mu        sync.Mutex
	afterEach []AfterEachFunc
}

// New builds a router over a fixed route table. The store may be nil, in which
// case every navigation is treated as signed out.
func New(routes []Route, store *session.Store, out io.Writer) (*Router, error) {
	r := &Router{store: store, out: out}
	seen := map[string]bool{}
	for _, route := range routes {
		if route.View == nil && route.Lazy == nil {
			return nil, fmt.Errorf("%s: %w", route.Path, ErrNoView)
		}
		if seen[route.Path] {
			return nil, fmt.Errorf("duplicate route %s", route.Path)
		}
		seen[route.Path] = true
		r.entries = append(r.entries, &entry{route: route, segments: split(route.Path)})
	}
	return r, nil
}

// Routes returns a copy of the route table
func (r *Router) Routes() []Route {
	routes := make([]Route, len(r.entries))
	for i, e := range r.entries {
		routes[i] = e.route
	}
	return routes
}

// AfterEach registers fn to observe every navigation decision
func (r *Router) AfterEach(fn AfterEachFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterEach = append(r.afterEach, fn)
}

// Match returns the route for path along with its parameters
func (r *Router) Match(path string) (Route, map[string]string, error) {
	e, params, err := r.find(path)
	if err != nil {
		return Route{}, nil, err
	}
	return e.route, params, nil
}

func (r *Router) find(path string) (*entry, map[string]string, error) {
	segments := split(path)
	for _, e := range r.entries {
		if params, ok := e.match(segments); ok {
			return e, params, nil
		}
	}
	return nil, nil, fmt.Errorf("%s: %w", path, ErrNotFound)
}

// Navigate resolves path, applies the guard and renders the resulting view.
// A redirect target is rendered without being guarded again.
func (r *Router) Navigate(ctx context.Context, target string) (Decision, error) {
	path, query := normalize(target), url.Values{}
	raw, _, _ := strings.Cut(target, "#")
	if _, rawQuery, found := strings.Cut(raw, "?"); found {
		parsed, err := url.ParseQuery(rawQuery)
		if err != nil {
			return Decision{}, fmt.Errorf("invalid query in %s: %w", target, err)
		}
		query = parsed
	}

	e, params, err := r.find(path)
	if err != nil {
		return Decision{}, err
	}

	var (
		s  session.Session
		ok bool
	)
	if r.store != nil {
		s, ok = r.store.Current()
	}

	requested := e.route
	decision := Guard(requested, s, ok)
	req := Request{Path: path, Params: params, Query: query}
	if decision.Action == Redirect {
		decision.RedirectFrom = path
		dest, destParams, err := r.find(decision.To)
		if err != nil {
			return decision, err
		}
		e = dest
		req = Request{Path: decision.To, Params: destParams, Query: url.Values{}, From: path}
	} else {
		decision.To = path
	}

	r.notify(requested, decision)

	view := e.resolve()
	if view == nil {
		return decision, fmt.Errorf("%s: %w", e.route.Path, ErrNoView)
	}
	return decision, view.Render(ctx, r.out, req)
}

func (r *Router) notify(requested Route, d Decision) {
	r.mu.Lock()
	listeners := append([]AfterEachFunc(nil), r.afterEach...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(requested, d)
	}
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func split(path string) []string {
	path = strings.Trim(normalize(path), "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

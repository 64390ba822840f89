package extractor

import (
	"net/url"
	"strings"
	"sync"
)

// PathMatcher decides whether a route handles a path
type PathMatcher func(pathname string) bool

// PathContains matches a path containing any of the fragments
func PathContains(fragments ...string) PathMatcher {
	return func(pathname string) bool {
		p := strings.ToLower(pathname)
		for _, f := range fragments {
			if strings.Contains(p, f) {
				return true
			}
		}
		return false
	}
}

// Route binds a host and a path discriminator to a strategy
type Route struct {
	Host     string
	Match    PathMatcher
	Strategy Strategy
}

// Registry maps a page location to the strategy that can read it
type Registry struct {
	mu     sync.RWMutex
	routes []Route
}

// NewRegistry creates a registry; earlier routes win
func NewRegistry(routes ...Route) *Registry {
	r := &Registry{}
	for _, route := range routes {
		r.Register(route)
	}
	return r
}

// Register appends a route
func (r *Registry) Register(route Route) {
	route.Host = trimWWW(strings.ToLower(strings.TrimSpace(route.Host)))
	r.mu.Lock()
	r.routes = append(r.routes, route)
	r.mu.Unlock()
}

// Resolve returns the strategy for a hostname and path. The same location
// always yields the same strategy.
func (r *Registry) Resolve(hostname, pathname string) (Strategy, bool) {
	host := trimWWW(strings.ToLower(hostname))
	if host == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, route := range r.routes {
		if route.Host == "" || !strings.Contains(host, route.Host) {
			continue
		}
		if route.Match != nil && !route.Match(pathname) {
			continue
		}
		return route.Strategy, true
	}
	return nil, false
}

// ResolveURL resolves a parsed URL
func (r *Registry) ResolveURL(u *url.URL) (Strategy, bool) {
	if u == nil {
		return nil, false
	}
	return r.Resolve(u.Hostname(), u.Path)
}

// Strategies returns every registered strategy in route order
func (r *Registry) Strategies() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Strategy, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route.Strategy)
	}
	return out
}

func trimWWW(host string) string {
	return strings.TrimPrefix(host, "www.")
}

// NewDefaultRegistry wires every supported site
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		Route{Host: "arabam.com", Match: PathContains("/ilan/"), Strategy: NewDetailStrategy(arabamDetail)},
		Route{Host: "arabam.com", Match: PathContains("/ikinci-el"), Strategy: NewListStrategy(arabamList)},
		Route{Host: "sahibinden.com", Match: PathContains("/ilan/"), Strategy: NewDetailStrategy(sahibindenDetail)},
		Route{Host: "sahibinden.com", Match: PathContains(sahibindenListPaths...), Strategy: NewListStrategy(sahibindenList)},
		Route{Host: "hepsiburada.com", Match: PathContains("-p-"), Strategy: NewDetailStrategy(hepsiburadaDetail)},
	)
}

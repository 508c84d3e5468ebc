// Package gateway defines the route registry mapping HTTP paths to bus
// subjects and typed payload schemas. Routes are plain data: all behavior
// lives in the protocol subpackages.
package gateway

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/c360/busbridge/errors"
)

// subjectPattern enforces the bus subject convention
// svc.<domain>.<component>.v<version>.<verb>.
var subjectPattern = regexp.MustCompile(`^svc\.[a-z0-9-]+\.[a-z0-9-]+\.v[0-9]+\.[a-z0-9-]+$`)

// Route maps one HTTP path to a bus subject and its payload types. The
// factory fields reference compile-time Go types, so a missing or mistyped
// schema is caught at build time rather than at first request.
type Route struct {
	// Path is the HTTP route path (e.g. "/v1/chat/completions"). Exact
	// match only; parameterized paths are pre-expanded entries.
	Path string

	// Subject is the bus subject requests are published to.
	Subject string

	// NewRequest and NewResponse construct empty payload values for
	// decoding. Both are required.
	NewRequest  func() any
	NewResponse func() any

	// NewChunk constructs an empty stream-chunk value. Nil marks the
	// route as unary.
	NewChunk func() any

	// Timeout overrides the configured per-request bus timeout when
	// non-zero.
	Timeout time.Duration
}

// Streaming reports whether replies arrive as a chunked stream.
func (r Route) Streaming() bool {
	return r.NewChunk != nil
}

// Validate ensures the route is usable.
func (r Route) Validate() error {
	if r.Path == "" || !strings.HasPrefix(r.Path, "/") {
		return errors.WrapClient(errors.ErrInvalidConfig, "Route", "Validate",
			fmt.Sprintf("path %q must start with /", r.Path))
	}
	if !subjectPattern.MatchString(r.Subject) {
		return errors.WrapClient(errors.ErrInvalidConfig, "Route", "Validate",
			fmt.Sprintf("subject %q must match svc.<domain>.<component>.v<version>.<verb>", r.Subject))
	}
	if r.NewRequest == nil {
		return errors.WrapClient(errors.ErrInvalidConfig, "Route", "Validate",
			fmt.Sprintf("route %s has no request type", r.Path))
	}
	if r.NewResponse == nil {
		return errors.WrapClient(errors.ErrInvalidConfig, "Route", "Validate",
			fmt.Sprintf("route %s has no response type", r.Path))
	}
	if r.Timeout < 0 {
		return errors.WrapClient(errors.ErrInvalidConfig, "Route", "Validate",
			fmt.Sprintf("route %s has negative timeout", r.Path))
	}
	return nil
}

// Table is the immutable route registry. Built once at startup; concurrent
// lookups need no locking.
type Table struct {
	routes map[string]Route
}

// NewTable validates routes and builds the registry. Duplicate paths are a
// configuration error.
func NewTable(routes []Route) (*Table, error) {
	byPath := make(map[string]Route, len(routes))
	for i, route := range routes {
		if err := route.Validate(); err != nil {
			return nil, errors.WrapClient(err, "Table", "NewTable",
				fmt.Sprintf("invalid route at index %d", i))
		}
		if _, exists := byPath[route.Path]; exists {
			return nil, errors.WrapClient(errors.ErrInvalidConfig, "Table", "NewTable",
				fmt.Sprintf("duplicate route path %s", route.Path))
		}
		byPath[route.Path] = route
	}
	return &Table{routes: byPath}, nil
}

// Lookup finds the route for an exact path.
func (t *Table) Lookup(path string) (Route, bool) {
	route, ok := t.routes[path]
	return route, ok
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	return len(t.routes)
}

// Paths returns all registered paths, for handler registration.
func (t *Table) Paths() []string {
	paths := make([]string, 0, len(t.routes))
	for p := range t.routes {
		paths = append(paths, p)
	}
	return paths
}

package analyzers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"icabridge/internal/logging"
)

// Registry holds known analyzers. It is thread-safe and supports
// registration at runtime.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]*Analyzer

	// byCategory provides fast lookup by category.
	byCategory map[Category][]*Analyzer
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		analyzers:  make(map[string]*Analyzer),
		byCategory: make(map[Category][]*Analyzer),
	}
}

// Register adds an analyzer.
// Returns an error if an analyzer with the same name already exists.
func (r *Registry) Register(a *Analyzer) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("invalid analyzer: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.analyzers[a.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAnalyzerExists, a.Name)
	}

	r.analyzers[a.Name] = a
	r.byCategory[a.Category] = append(r.byCategory[a.Category], a)

	logging.ClientDebug("registered analyzer: %s (category=%s)", a.Name, a.Category)
	return nil
}

// MustRegister registers an analyzer and panics on error.
// Use this for static registration at init time.
func (r *Registry) MustRegister(a *Analyzer) {
	if err := r.Register(a); err != nil {
		panic(fmt.Sprintf("failed to register analyzer %s: %v", a.Name, err))
	}
}

// Get returns an analyzer by name, or nil if not found.
func (r *Registry) Get(name string) *Analyzer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.analyzers[name]
}

// Has returns true if an analyzer with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.analyzers[name]
	return ok
}

// GetByCategory returns the analyzers in a category, sorted by name.
func (r *Registry) GetByCategory(category Category) []*Analyzer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Analyzer, len(r.byCategory[category]))
	copy(out, r.byCategory[category])
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// All returns every analyzer sorted by name.
func (r *Registry) All() []*Analyzer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Analyzer, 0, len(r.analyzers))
	for _, a := range r.analyzers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.analyzers))
	for name := range r.analyzers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered analyzers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.analyzers)
}

// Resolve maps user input to an analyzer. Registered names win; otherwise
// input that looks like a path (a .py suffix or a path separator) is passed
// through for the sidecar to load.
func (r *Registry) Resolve(input string) (*Analyzer, error) {
	name := strings.TrimSpace(input)
	if name == "" {
		return nil, ErrAnalyzerNameEmpty
	}
	if a := r.Get(name); a != nil {
		return a, nil
	}
	if IsPath(name) {
		return &Analyzer{
			Name:        strings.TrimSuffix(filepath.Base(name), ".py"),
			Description: "custom analyzer",
			Category:    CategoryExport,
			Path:        name,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrAnalyzerNotFound, name)
}

// IsPath reports whether input names an analyzer file rather than a
// built-in module.
func IsPath(input string) bool {
	return strings.HasSuffix(input, ".py") || strings.ContainsAny(input, `/\`)
}

package module

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Resolver dispatches a path to the Loader registered for its scheme,
// after applying aliases. Paths without a known scheme go to the fallback.
type Resolver struct {
	mu       sync.RWMutex
	schemes  map[string]Loader
	aliases  map[string]string
	fallback Loader
	log      *logrus.Logger
}

// NewResolver creates a resolver that sends unknown schemes to fallback.
// fallback may be nil, in which case such paths fail.
func NewResolver(fallback Loader, log *logrus.Logger) *Resolver {
	if log == nil {
		log = logrus.New()
	}
	return &Resolver{
		schemes:  make(map[string]Loader),
		aliases:  make(map[string]string),
		fallback: fallback,
		log:      log,
	}
}

// Handle registers l for paths of the form "scheme:rest".
func (r *Resolver) Handle(scheme string, l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schemes[scheme] = l
}

// Alias makes path load target instead. Aliases do not chain.
func (r *Resolver) Alias(path, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[Key(path)] = target
}

// Resolve returns the effective path for path.
func (r *Resolver) Resolve(path string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	file, class := SplitClass(path)
	target, ok := r.aliases[Key(file)]
	if !ok {
		return path
	}
	if class != "" {
		if t, _ := SplitClass(target); t != "" {
			target = t
		}
		target += "#" + class
	}
	return target
}

// Load implements Loader.
func (r *Resolver) Load(ctx context.Context, path string) (Module, error) {
	resolved := r.Resolve(path)
	if resolved != path {
		r.log.WithFields(logrus.Fields{"path": path, "target": resolved}).Debug("Resolved module alias")
	}

	file, _ := SplitClass(resolved)
	r.mu.RLock()
	var l Loader
	if scheme, _, ok := strings.Cut(file, ":"); ok {
		l = r.schemes[scheme]
	}
	if l == nil {
		l = r.fallback
	}
	r.mu.RUnlock()

	if l == nil {
		return nil, fmt.Errorf("no loader for %q", file)
	}
	return l.Load(ctx, file)
}

// Package module opens plugin binaries and hands out their factories.
//
// A Loader turns a path into a Module. The Resolver picks a Loader by
// scheme ("builtin:gain") or alias, and the Cache shares one opened
// Module between every instance created from it.
package module

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Module is an opened plugin binary.
type Module interface {
	// Path is the location the module was opened from.
	Path() string
	// Factory enumerates and instantiates the module's classes.
	Factory() vst3.PluginFactory
	// Close releases the binary. No instance created from it may be
	// used afterwards.
	Close() error
}

// Loader opens modules.
type Loader interface {
	Load(ctx context.Context, path string) (Module, error)
}

// PathResolver is implemented by loaders that rewrite paths before
// loading, such as Resolver.
type PathResolver interface {
	Resolve(path string) string
}

// ClassSelector returns the class name path asks for, after l rewrites
// it when l is a PathResolver.
func ClassSelector(l Loader, path string) string {
	if r, ok := l.(PathResolver); ok {
		path = r.Resolve(path)
	}
	_, class := SplitClass(path)
	return class
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, path string) (Module, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, path string) (Module, error) {
	return f(ctx, path)
}

// SplitClass separates an optional "#ClassName" selector from path.
func SplitClass(path string) (file, class string) {
	if i := strings.LastIndexByte(path, '#'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}

// Key normalizes a module path for caching.
func Key(path string) string {
	file, _ := SplitClass(path)
	if scheme, rest, ok := strings.Cut(file, ":"); ok && len(scheme) > 1 && !strings.ContainsAny(scheme, `/\`) {
		return scheme + ":" + rest
	}
	return filepath.Clean(file)
}

// FindClass returns the class named name, or the first audio module class
// when name is empty.
func FindClass(f vst3.PluginFactory, name string) (vst3.ClassInfo, bool) {
	n := f.CountClasses()
	for i := int32(0); i < n; i++ {
		info, err := f.ClassInfo(i)
		if err != nil || !info.IsAudioModule() {
			continue
		}
		if name == "" || strings.EqualFold(info.Name, name) {
			return info, true
		}
	}
	return vst3.ClassInfo{}, false
}

// Classes lists every class of f.
func Classes(f vst3.PluginFactory) []vst3.ClassInfo {
	n := f.CountClasses()
	out := make([]vst3.ClassInfo, 0, n)
	for i := int32(0); i < n; i++ {
		if info, err := f.ClassInfo(i); err == nil {
			out = append(out, info)
		}
	}
	return out
}

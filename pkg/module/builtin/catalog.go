// Package builtin provides in-process plugins that load through the same
// factory interfaces as native modules. They make the host usable, and
// testable, without plugin binaries.
package builtin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/justyntemme/vst3host/pkg/module"
	"github.com/justyntemme/vst3host/pkg/vst3"
)

// Scheme is the path prefix served by a Catalog, as in "builtin:gain".
const Scheme = "builtin"

const vendor = "vst3host"

// namespace seeds deterministic class IDs.
var namespace = uuid.MustParse("6f1c2b0e-5d43-4c1e-9a7b-3e2f8d4a1c90")

// ClassDef declares one builtin class.
type ClassDef struct {
	Name     string
	Category string
	New      func() vst3.Component
}

// ClassID derives the stable class ID of name.
func ClassID(name string) vst3.TUID {
	return vst3.TUID(uuid.NewSHA1(namespace, []byte(strings.ToLower(name))))
}

// Catalog is a Loader for "builtin:<module>" paths.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string][]ClassDef
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{modules: make(map[string][]ClassDef)}
}

// DefaultCatalog returns a catalog with every builtin plugin. Each plugin
// is its own module, and "suite" holds all of them.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	defs := []ClassDef{
		{Name: "Gain", Category: vst3.CategoryAudioEffect, New: func() vst3.Component { return NewGain() }},
		{Name: "Synth", Category: vst3.CategoryAudioEffect, New: func() vst3.Component { return NewSynth() }},
		{Name: "Delay", Category: vst3.CategoryAudioEffect, New: func() vst3.Component { return NewDelay() }},
		{Name: "Reverb", Category: vst3.CategoryAudioEffect, New: func() vst3.Component { return NewReverb() }},
		{Name: "Meter", Category: vst3.CategoryAudioEffect, New: func() vst3.Component { return NewMeter() }},
		{Name: "Remote", Category: vst3.CategoryAudioEffect, New: func() vst3.Component { return NewRemote() }},
	}
	for _, d := range defs {
		c.Register(strings.ToLower(d.Name), d)
	}
	c.Register("suite", defs...)
	return c
}

// Register adds classes to module name, creating it if needed.
func (c *Catalog) Register(name string, defs ...ClassDef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[name] = append(c.modules[name], defs...)
}

// Modules lists the registered module paths.
func (c *Catalog) Modules() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.modules))
	for name := range c.modules {
		out = append(out, Scheme+":"+name)
	}
	sort.Strings(out)
	return out
}

// Load implements module.Loader.
func (c *Catalog) Load(ctx context.Context, path string) (module.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, _ := module.SplitClass(path)
	name := strings.TrimPrefix(file, Scheme+":")

	c.mu.RLock()
	defs, ok := c.modules[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no builtin module %q", name)
	}
	return &builtinModule{path: file, factory: &factory{defs: append([]ClassDef(nil), defs...)}}, nil
}

type builtinModule struct {
	path    string
	factory *factory
}

func (m *builtinModule) Path() string                { return m.path }
func (m *builtinModule) Factory() vst3.PluginFactory { return m.factory }
func (m *builtinModule) Close() error                { return nil }

type factory struct {
	defs []ClassDef
}

func (f *factory) Info() vst3.FactoryInfo {
	return vst3.FactoryInfo{Vendor: vendor}
}

func (f *factory) CountClasses() int32 {
	return int32(len(f.defs))
}

func (f *factory) ClassInfo(index int32) (vst3.ClassInfo, error) {
	if index < 0 || int(index) >= len(f.defs) {
		return vst3.ClassInfo{}, vst3.ResultInvalidArgument
	}
	d := f.defs[index]
	return vst3.ClassInfo{
		ID:          ClassID(d.Name),
		Cardinality: 0x7FFFFFFF,
		Category:    d.Category,
		Name:        d.Name,
	}, nil
}

func (f *factory) CreateComponent(cid vst3.TUID) (vst3.Component, error) {
	for _, d := range f.defs {
		if ClassID(d.Name) == cid {
			return d.New(), nil
		}
	}
	return nil, vst3.ResultInvalidArgument
}

// CreateController is never needed: builtin controllers live on the
// component.
func (f *factory) CreateController(cid vst3.TUID) (vst3.EditController, error) {
	return nil, vst3.ResultNotImplemented
}

// Package output provides formatters for displaying install plans in
// various output formats (pretty, json, yaml, tsv, csv).
//
// The package uses a registry pattern to allow registration of multiple
// formatter implementations that can be selected at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, output.FromPlan(plan)); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/rig/pkg/rig/install"
	"github.com/jamesainslie/rig/pkg/rig/types"
)

// Runtime names the runtime build a plan installs.
type Runtime struct {
	Component string `json:"component" yaml:"component"`
	Version   string `json:"version" yaml:"version"`
	Released  string `json:"released,omitempty" yaml:"released,omitempty"`
}

// KindSummary counts the items of one kind.
type KindSummary struct {
	Kind  types.Kind `json:"kind" yaml:"kind"`
	Count int        `json:"count" yaml:"count"`
	Size  int64      `json:"size" yaml:"size"`
}

// Result contains the plan data for formatting.
type Result struct {
	// Version is the resolved version id.
	Version string

	// Type is the release channel of the version.
	Type string

	// Platform is the target platform as "os/arch".
	Platform string

	// Root is the absolute install root.
	Root string

	// MainClass is the JVM entry point.
	MainClass string

	// Runtime is the selected runtime build.
	Runtime Runtime

	// Items are the planned transfers in plan order.
	Items []types.Item

	// Detailed lists every item in the pretty output instead of only the
	// per-kind summary.
	Detailed bool
}

// FromPlan builds a Result from an install plan.
func FromPlan(p *install.Plan) *Result {
	return &Result{
		Version:   p.Manifest.ID,
		Type:      string(p.Manifest.Type),
		Platform:  p.Platform.String(),
		Root:      p.Tree.Root(),
		MainClass: p.Manifest.MainClass,
		Runtime: Runtime{
			Component: p.Manifest.JavaVersion.Component,
			Version:   p.Runtime.Version.Name,
			Released:  p.Runtime.Version.Released,
		},
		Items: p.Items,
	}
}

// TotalSize returns the sum of the known item sizes.
func (r *Result) TotalSize() int64 {
	return types.TotalSize(r.Items)
}

// Summary returns per-kind counts ordered by kind.
func (r *Result) Summary() []KindSummary {
	byKind := make(map[types.Kind]*KindSummary)
	for _, it := range r.Items {
		s, ok := byKind[it.Kind]
		if !ok {
			s = &KindSummary{Kind: it.Kind}
			byKind[it.Kind] = s
		}
		s.Count++
		if it.HasSize() {
			s.Size += it.Size
		}
	}

	out := make([]KindSummary, 0, len(byKind))
	for _, s := range byKind {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry, replacing any
// existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

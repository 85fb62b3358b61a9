// Package install ties the pieces together: it resolves a version manifest
// (following inheritance), fetches the metadata the planner needs, plans the
// install and runs the download engine over the plan.
package install

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/jamesainslie/rig/pkg/rig/api"
	"github.com/jamesainslie/rig/pkg/rig/download"
	"github.com/jamesainslie/rig/pkg/rig/logging"
	"github.com/jamesainslie/rig/pkg/rig/manifest"
	"github.com/jamesainslie/rig/pkg/rig/planner"
	rt "github.com/jamesainslie/rig/pkg/rig/runtime"
	"github.com/jamesainslie/rig/pkg/rig/tree"
	"github.com/jamesainslie/rig/pkg/rig/types"
)

var logger = logging.Get("install")

var (
	// ErrNotCached is returned in offline mode when a document is not on disk.
	ErrNotCached = errors.New("not available offline")

	// ErrUnknownVersion is returned when the version list has no such id.
	ErrUnknownVersion = errors.New("unknown version")
)

// Options configures an Installer.
type Options struct {
	// Root is the install root. Required.
	Root string

	// Platform filters libraries and selects the runtime. Defaults to the
	// host platform.
	Platform types.Platform

	// Features gates conditional arguments. Defaults to
	// manifest.DefaultFeatures().
	Features manifest.FeatureSet

	// Offline never touches the network; missing documents fail with
	// ErrNotCached.
	Offline bool

	// API holds the endpoint URLs. Empty fields use api.Default().
	API api.Client

	// Engine fetches every file. Defaults to an engine over Root.
	Engine *download.Engine

	// Preflight, when set, runs after planning and before downloading.
	// Returning an error aborts the install.
	Preflight func(*Plan) error
}

// Validate fills in defaults.
func (o *Options) Validate() error {
	if o.Root == "" {
		return errors.New("install root is required")
	}
	if o.Platform == (types.Platform{}) {
		p, err := types.CurrentPlatform()
		if err != nil {
			return err
		}
		o.Platform = p
	}
	if o.Features == nil {
		o.Features = manifest.DefaultFeatures()
	}
	o.API = o.API.WithDefaults()
	if o.Engine == nil {
		o.Engine = download.New(download.Options{Root: o.Root})
	}
	return nil
}

// Plan is everything needed to install one version.
type Plan struct {
	Tree     tree.Tree
	Platform types.Platform
	Manifest *manifest.Root
	Runtime  rt.Component
	Files    *rt.FileManifest
	Items    []types.Item
}

// TotalSize is the sum of the known item sizes.
func (p *Plan) TotalSize() int64 {
	return types.TotalSize(p.Items)
}

// Result summarizes a finished install.
type Result struct {
	Plan    *Plan
	Elapsed time.Duration
}

// Installer resolves, plans and installs versions under one root.
type Installer struct {
	opts Options
	root string

	mu   sync.Mutex
	list *manifest.VersionList
}

// New returns an Installer.
func New(opts Options) (*Installer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Installer{opts: opts, root: opts.Engine.Root()}, nil
}

// Root returns the absolute install root.
func (in *Installer) Root() string {
	return in.root
}

// Platform returns the target platform.
func (in *Installer) Platform() types.Platform {
	return in.opts.Platform
}

// VersionList returns the published version list. Online it is fetched once
// per Installer; offline the copy on disk is used.
func (in *Installer) VersionList(ctx context.Context, events chan<- download.Event) (*manifest.VersionList, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.list != nil {
		return in.list, nil
	}

	data, err := in.ensure(ctx, in.opts.API.VersionList(), events)
	if err != nil {
		return nil, fmt.Errorf("version list: %w", err)
	}
	list, err := manifest.ParseVersionList(data)
	if err != nil {
		return nil, err
	}
	in.list = list
	return list, nil
}

// Resolve returns the complete manifest for id, merging an inheriting
// manifest onto its parent. Manifests already on disk are used as is.
func (in *Installer) Resolve(ctx context.Context, id string, events chan<- download.Event) (*manifest.Root, error) {
	m, err := in.load(ctx, id, events)
	if err != nil {
		return nil, err
	}

	switch m := m.(type) {
	case *manifest.Root:
		return m, nil

	case *manifest.Inherited:
		parent, err := in.load(ctx, m.InheritsFrom, events)
		if err != nil {
			return nil, fmt.Errorf("parent of %s: %w", m.ID, err)
		}
		root, ok := parent.(*manifest.Root)
		if !ok {
			return nil, fmt.Errorf("%w: %s inherits from %s, which inherits again", manifest.ErrInvalidManifest, m.ID, m.InheritsFrom)
		}
		logger.Debug("merged manifest", "id", m.ID, "parent", root.ID)
		return manifest.Merge(m, root), nil

	default:
		return nil, fmt.Errorf("%w: unsupported manifest %T", manifest.ErrInvalidManifest, m)
	}
}

// load reads versions/<id>/<id>.json, fetching it through the version list
// when it is not on disk.
func (in *Installer) load(ctx context.Context, id string, events chan<- download.Event) (manifest.Manifest, error) {
	if id == "latest-release" || id == "latest-snapshot" {
		list, err := in.VersionList(ctx, events)
		if err != nil {
			return nil, err
		}
		ref, ok := list.Find(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, id)
		}
		id = ref.ID
	}

	data, err := os.ReadFile(tree.ManifestPath(in.root, id))
	if err == nil {
		return manifest.Parse(data)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", download.ErrIO, err)
	}
	if in.opts.Offline {
		return nil, fmt.Errorf("%w: manifest %s", ErrNotCached, id)
	}

	list, err := in.VersionList(ctx, events)
	if err != nil {
		return nil, err
	}
	ref, ok := list.Find(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, id)
	}

	data, err = in.ensure(ctx, in.opts.API.VersionManifest(ref), events)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", id, err)
	}
	return manifest.Parse(data)
}

// Plan resolves id and plans its install. Metadata documents (asset index,
// runtime index and runtime manifest) are fetched as needed and reported on
// events like any download.
func (in *Installer) Plan(ctx context.Context, id string, events chan<- download.Event) (*Plan, error) {
	root, err := in.Resolve(ctx, id, events)
	if err != nil {
		return nil, err
	}

	component, err := rt.ParseComponentType(root.JavaVersion.Component)
	if err != nil {
		return nil, err
	}

	t, err := tree.New(in.root, root.ID, string(component))
	if err != nil {
		return nil, err
	}

	data, err := in.ensure(ctx, in.opts.API.AssetIndex(t, root), events)
	if err != nil {
		return nil, fmt.Errorf("asset index: %w", err)
	}
	assets, err := manifest.ParseAssetIndex(data)
	if err != nil {
		return nil, err
	}

	data, err = in.ensure(ctx, in.opts.API.RuntimeIndex(), events)
	if err != nil {
		return nil, fmt.Errorf("runtime index: %w", err)
	}
	components, err := rt.ParseComponents(data)
	if err != nil {
		return nil, err
	}
	selected, err := components.Select(in.opts.Platform, component)
	if err != nil {
		return nil, err
	}

	data, err = in.ensure(ctx, in.opts.API.RuntimeManifest(t, selected), events)
	if err != nil {
		return nil, fmt.Errorf("runtime manifest: %w", err)
	}
	files, err := rt.ParseFileManifest(data)
	if err != nil {
		return nil, err
	}

	items, err := planner.Plan(t, planner.Input{
		Manifest:   root,
		AssetIndex: assets,
		Runtime:    files,
	}, planner.Options{
		Platform:     in.opts.Platform,
		ResourcesURL: in.opts.API.ResourcesURL,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("planned install", "id", root.ID, "items", len(items), "runtime", component, "platform", in.opts.Platform)

	return &Plan{
		Tree:     t,
		Platform: in.opts.Platform,
		Manifest: root,
		Runtime:  selected,
		Files:    files,
		Items:    items,
	}, nil
}

// Install plans id and downloads every item. On success runtime files
// published as executable are made executable.
func (in *Installer) Install(ctx context.Context, id string, events chan<- download.Event) (*Result, error) {
	start := time.Now()

	plan, err := in.Plan(ctx, id, events)
	if err != nil {
		return nil, err
	}
	return in.Apply(ctx, plan, events, start)
}

// Apply downloads an existing plan. start is reported back in Result.Elapsed;
// a zero start means now.
func (in *Installer) Apply(ctx context.Context, plan *Plan, events chan<- download.Event, start time.Time) (*Result, error) {
	if start.IsZero() {
		start = time.Now()
	}
	result := &Result{Plan: plan}

	if in.opts.Preflight != nil {
		if err := in.opts.Preflight(plan); err != nil {
			return result, err
		}
	}

	if in.opts.Offline {
		return result, in.checkOffline(plan)
	}

	err := in.opts.Engine.Run(ctx, plan.Items, events)
	result.Elapsed = time.Since(start)
	if err != nil {
		return result, err
	}

	if err := markExecutables(plan); err != nil {
		return result, err
	}

	logger.Info("install finished", "id", plan.Manifest.ID, "items", len(plan.Items), "elapsed", result.Elapsed)
	return result, nil
}

// Arguments returns the JVM and game arguments of m that apply on the
// target platform with the configured features.
func (in *Installer) Arguments(m *manifest.Root) (jvm, game []string) {
	jvm = manifest.ResolveArguments(m.Arguments.JVM, in.opts.Platform, in.opts.Features)
	game = manifest.ResolveArguments(m.Arguments.Game, in.opts.Platform, in.opts.Features)
	return jvm, game
}

// ensure makes item present on disk and returns its contents.
func (in *Installer) ensure(ctx context.Context, item types.Item, events chan<- download.Event) ([]byte, error) {
	path := filepath.Join(in.root, item.Path)

	if !in.opts.Offline {
		if err := in.opts.Engine.Fetch(ctx, item, events); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && in.opts.Offline {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, item.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", download.ErrIO, err)
	}
	return data, nil
}

// checkOffline reports the first planned file that is not on disk.
func (in *Installer) checkOffline(plan *Plan) error {
	for _, item := range plan.Items {
		if _, err := os.Stat(filepath.Join(in.root, item.Path)); err != nil {
			return fmt.Errorf("%w: %s", ErrNotCached, item.Path)
		}
	}
	return nil
}

func markExecutables(plan *Plan) error {
	if runtime.GOOS == "windows" || plan.Files == nil {
		return nil
	}
	dir := plan.Tree.Dir(types.KindRuntime)
	for path, entry := range plan.Files.Files {
		if entry.Type != rt.EntryFile || !entry.Executable {
			continue
		}
		if err := os.Chmod(filepath.Join(dir, filepath.FromSlash(path)), 0o755); err != nil {
			return fmt.Errorf("%w: %w", download.ErrIO, err)
		}
	}
	return nil
}

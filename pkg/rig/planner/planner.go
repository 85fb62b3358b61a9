// Package planner turns a resolved version manifest, its asset index and a
// runtime file manifest into the flat list of files an install needs.
//
// Planning is pure: identical inputs always yield identical items in the same
// order. Any error aborts the whole plan.
package planner

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/rig/pkg/rig/manifest"
	"github.com/jamesainslie/rig/pkg/rig/runtime"
	"github.com/jamesainslie/rig/pkg/rig/tree"
	"github.com/jamesainslie/rig/pkg/rig/types"
)

// DefaultResourcesURL hosts asset objects.
const DefaultResourcesURL = "https://resources.download.minecraft.net"

// Input holds the documents a plan is built from.
type Input struct {
	// Manifest is the resolved (merged) version manifest. Required.
	Manifest *manifest.Root

	// AssetIndex is the index named by Manifest.AssetIndex. When nil no
	// asset objects are planned.
	AssetIndex *manifest.AssetIndex

	// Runtime is the file manifest of the runtime component. When nil no
	// runtime files are planned.
	Runtime *runtime.FileManifest
}

// Options configures planning.
type Options struct {
	// Platform filters libraries. Required.
	Platform types.Platform

	// ResourcesURL is the asset object host. Defaults to DefaultResourcesURL.
	ResourcesURL string
}

// Plan returns the install items for in, in this order: client jar,
// libraries in manifest order, asset index, asset objects sorted by path,
// runtime files sorted by path.
func Plan(t tree.Tree, in Input, opts Options) ([]types.Item, error) {
	if in.Manifest == nil {
		return nil, fmt.Errorf("%w: no manifest to plan", manifest.ErrInvalidManifest)
	}
	if opts.ResourcesURL == "" {
		opts.ResourcesURL = DefaultResourcesURL
	}

	m := in.Manifest
	items := make([]types.Item, 0, 1+len(m.Libraries)+1+assetCount(in.AssetIndex)+runtimeCount(in.Runtime))

	items = append(items, types.Item{
		Kind: types.KindVersion,
		URL:  m.Downloads.Client.URL,
		Path: t.VersionJarRel(),
		Size: m.Downloads.Client.Size,
		SHA1: m.Downloads.Client.SHA1,
	})

	libs, err := libraryItems(t, m.Libraries, opts.Platform)
	if err != nil {
		return nil, err
	}
	items = append(items, libs...)

	items = append(items, types.Item{
		Kind: types.KindAssetIndex,
		URL:  m.AssetIndex.URL,
		Path: t.AssetIndexRel(m.AssetIndex.ID),
		Size: m.AssetIndex.Size,
		SHA1: m.AssetIndex.SHA1,
	})

	if in.AssetIndex != nil {
		assets, err := assetItems(t, in.AssetIndex, opts.ResourcesURL)
		if err != nil {
			return nil, err
		}
		items = append(items, assets...)
	}

	if in.Runtime != nil {
		items = append(items, runtimeItems(t, in.Runtime)...)
	}

	return items, nil
}

func libraryItems(t tree.Tree, libs manifest.Libraries, p types.Platform) ([]types.Item, error) {
	var items []types.Item
	libDir := t.Rel(types.KindLibrary)

	artifactItem := func(a manifest.Artifact) types.Item {
		return types.Item{
			Kind: types.KindLibrary,
			URL:  a.URL,
			Path: filepath.Join(libDir, filepath.FromSlash(a.Path)),
			Size: a.Size,
			SHA1: a.SHA1,
		}
	}

	for _, lib := range libs {
		switch l := lib.(type) {
		case *manifest.CustomLibrary:
			rel, err := manifest.CoordinatePath(l.Name)
			if err != nil {
				return nil, err
			}
			base, err := url.Parse(l.URL)
			if err != nil {
				return nil, fmt.Errorf("%w: library %s: repository url: %w", manifest.ErrInvalidManifest, l.Name, err)
			}
			items = append(items, types.Item{
				Kind: types.KindLibrary,
				URL:  base.JoinPath(rel).String(),
				Path: filepath.Join(libDir, filepath.FromSlash(rel)),
				Size: types.UnknownSize,
			})

		case *manifest.DefaultLibrary:
			items = append(items, artifactItem(l.Artifact))

		case *manifest.SeminativeLibrary:
			if manifest.EvaluatePlatform(l.Rules, p) {
				items = append(items, artifactItem(l.Artifact))
			}

		case *manifest.NativeLibrary:
			if l.Artifact != nil {
				items = append(items, artifactItem(*l.Artifact))
			}
			if !manifest.EvaluatePlatform(l.Rules, p) {
				continue
			}
			classifier, ok := l.Classifier(p)
			if !ok {
				return nil, fmt.Errorf("%w: library %s has no native for %s", manifest.ErrInvalidManifest, l.Name, p.OS)
			}
			a, ok := l.Classifiers[classifier]
			if !ok {
				return nil, fmt.Errorf("%w: library %s has no classifier %s", manifest.ErrInvalidManifest, l.Name, classifier)
			}
			items = append(items, artifactItem(a))

		default:
			return nil, fmt.Errorf("%w: unsupported library %T", manifest.ErrInvalidManifest, lib)
		}
	}

	return items, nil
}

func assetItems(t tree.Tree, idx *manifest.AssetIndex, resources string) ([]types.Item, error) {
	resources = strings.TrimRight(resources, "/")
	paths := idx.Paths()
	items := make([]types.Item, 0, len(paths))

	for _, p := range paths {
		obj := idx.Objects[p]
		if len(obj.Hash) < 2 {
			return nil, fmt.Errorf("%w: asset %s has hash %q", manifest.ErrInvalidManifest, p, obj.Hash)
		}
		items = append(items, types.Item{
			Kind: types.KindAssetObject,
			URL:  resources + "/" + obj.Hash[:2] + "/" + obj.Hash,
			Path: t.AssetObjectRel(obj.Hash),
			Size: obj.Size,
			SHA1: obj.Hash,
		})
	}

	return items, nil
}

func runtimeItems(t tree.Tree, fm *runtime.FileManifest) []types.Item {
	paths := fm.Paths(runtime.EntryFile)
	items := make([]types.Item, 0, len(paths))
	runtimeDir := t.Rel(types.KindRuntime)

	for _, p := range paths {
		raw := fm.Files[p].Downloads.Raw
		items = append(items, types.Item{
			Kind: types.KindRuntime,
			URL:  raw.URL,
			Path: filepath.Join(runtimeDir, filepath.FromSlash(p)),
			Size: raw.Size,
			SHA1: raw.SHA1,
		})
	}

	return items
}

func assetCount(idx *manifest.AssetIndex) int {
	if idx == nil {
		return 0
	}
	return len(idx.Objects)
}

func runtimeCount(fm *runtime.FileManifest) int {
	if fm == nil {
		return 0
	}
	return len(fm.Files)
}

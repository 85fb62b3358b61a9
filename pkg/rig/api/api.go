// Package api names the remote documents an install reads and maps each one
// to an install item, so metadata is fetched through the download engine
// into the install tree like any other file.
package api

import (
	"github.com/jamesainslie/rig/pkg/rig/manifest"
	"github.com/jamesainslie/rig/pkg/rig/planner"
	"github.com/jamesainslie/rig/pkg/rig/runtime"
	"github.com/jamesainslie/rig/pkg/rig/tree"
	"github.com/jamesainslie/rig/pkg/rig/types"
)

// Default endpoints.
const (
	DefaultVersionsURL  = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"
	DefaultRuntimeURL   = "https://launchermeta.mojang.com/v1/products/java-runtime/2ec0cc96c44e5a76b9c8b7c39df7210883d12871/all.json"
	DefaultResourcesURL = planner.DefaultResourcesURL
)

// Client holds the endpoint URLs. The zero value is not usable; start from
// Default.
type Client struct {
	VersionsURL  string `mapstructure:"versions_url" yaml:"versions_url"`
	RuntimeURL   string `mapstructure:"runtime_url" yaml:"runtime_url"`
	ResourcesURL string `mapstructure:"resources_url" yaml:"resources_url"`
}

// Default returns the official endpoints.
func Default() Client {
	return Client{
		VersionsURL:  DefaultVersionsURL,
		RuntimeURL:   DefaultRuntimeURL,
		ResourcesURL: DefaultResourcesURL,
	}
}

// WithDefaults fills empty URLs from Default.
func (c Client) WithDefaults() Client {
	d := Default()
	if c.VersionsURL == "" {
		c.VersionsURL = d.VersionsURL
	}
	if c.RuntimeURL == "" {
		c.RuntimeURL = d.RuntimeURL
	}
	if c.ResourcesURL == "" {
		c.ResourcesURL = d.ResourcesURL
	}
	return c
}

// VersionList is the item for the published version list. It carries no
// digest, so it is fetched again on every online run.
func (c Client) VersionList() types.Item {
	return types.Item{
		Kind: types.KindVersion,
		URL:  c.VersionsURL,
		Path: tree.VersionListRel(),
		Size: types.UnknownSize,
	}
}

// VersionManifest is the item for the manifest a version list entry points at.
func (c Client) VersionManifest(ref manifest.VersionRef) types.Item {
	return types.Item{
		Kind: types.KindVersion,
		URL:  ref.URL,
		Path: tree.ManifestRel(ref.ID),
		Size: types.UnknownSize,
		SHA1: ref.SHA1,
	}
}

// RuntimeIndex is the item for the runtime component index.
func (c Client) RuntimeIndex() types.Item {
	return types.Item{
		Kind: types.KindRuntime,
		URL:  c.RuntimeURL,
		Path: tree.RuntimeIndexRel(),
		Size: types.UnknownSize,
	}
}

// RuntimeManifest is the item for the file manifest of the component t was
// derived for.
func (c Client) RuntimeManifest(t tree.Tree, comp runtime.Component) types.Item {
	return types.Item{
		Kind: types.KindRuntime,
		URL:  comp.Manifest.URL,
		Path: t.RuntimeManifestRel(),
		Size: comp.Manifest.Size,
		SHA1: comp.Manifest.SHA1,
	}
}

// AssetIndex is the item for the asset index a manifest names.
func (c Client) AssetIndex(t tree.Tree, m *manifest.Root) types.Item {
	return types.Item{
		Kind: types.KindAssetIndex,
		URL:  m.AssetIndex.URL,
		Path: t.AssetIndexRel(m.AssetIndex.ID),
		Size: m.AssetIndex.Size,
		SHA1: m.AssetIndex.SHA1,
	}
}

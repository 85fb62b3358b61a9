package manifest

import (
	"encoding/json"
	"fmt"
	"slices"
)

// AssetObject is one content-addressed asset file.
type AssetObject struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// AssetIndex maps virtual asset paths to their objects.
type AssetIndex struct {
	Objects map[string]AssetObject `json:"objects"`

	// Virtual and MapToResources are set by very old indexes.
	Virtual        bool `json:"virtual,omitempty"`
	MapToResources bool `json:"map_to_resources,omitempty"`
}

// ParseAssetIndex decodes an asset index document.
func ParseAssetIndex(data []byte) (*AssetIndex, error) {
	var idx AssetIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("%w: asset index: %w", ErrMalformedManifest, err)
	}
	if idx.Objects == nil {
		return nil, fmt.Errorf("%w: asset index without objects", ErrMalformedManifest)
	}
	return &idx, nil
}

// Paths returns the object paths in sorted order.
func (idx *AssetIndex) Paths() []string {
	paths := make([]string, 0, len(idx.Objects))
	for p := range idx.Objects {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

package manifest

import (
	"encoding/json"
	"fmt"
)

// Latest names the newest release and snapshot.
type Latest struct {
	Release  string `json:"release"`
	Snapshot string `json:"snapshot"`
}

// VersionRef is one entry of the published version list.
type VersionRef struct {
	ID          string      `json:"id"`
	Type        VersionType `json:"type"`
	URL         string      `json:"url"`
	SHA1        string      `json:"sha1"`
	Time        string      `json:"time"`
	ReleaseTime string      `json:"releaseTime"`
}

// VersionList is the published index of every version.
type VersionList struct {
	Latest   Latest       `json:"latest"`
	Versions []VersionRef `json:"versions"`
}

// ParseVersionList decodes the version list document.
func ParseVersionList(data []byte) (*VersionList, error) {
	var list VersionList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: version list: %w", ErrMalformedManifest, err)
	}
	return &list, nil
}

// Find returns the entry for id. The aliases "latest-release" and
// "latest-snapshot" resolve through Latest.
func (l *VersionList) Find(id string) (VersionRef, bool) {
	switch id {
	case "latest-release":
		id = l.Latest.Release
	case "latest-snapshot":
		id = l.Latest.Snapshot
	}
	for _, v := range l.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return VersionRef{}, false
}

// Filter returns the entries of the given types, in list order. No types
// means every entry.
func (l *VersionList) Filter(kinds ...VersionType) []VersionRef {
	if len(kinds) == 0 {
		return l.Versions
	}
	var out []VersionRef
	for _, v := range l.Versions {
		for _, k := range kinds {
			if v.Type == k {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

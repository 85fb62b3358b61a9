package manifest

import (
	"encoding/json"
	"fmt"

	"github.com/jamesainslie/rig/pkg/rig/types"
)

// Action is what a rule does when its condition holds.
type Action string

// Rule actions.
const (
	ActionAllow    Action = "allow"
	ActionDisallow Action = "disallow"
)

// OSCondition restricts a rule to an operating system and/or architecture.
// Version is a regular expression in the published data; it is carried but
// never consulted.
type OSCondition struct {
	Name    types.OS   `json:"name,omitempty"`
	Version string     `json:"version,omitempty"`
	Arch    types.Arch `json:"arch,omitempty"`
}

// Rule is a platform/feature predicate with an allow or disallow action.
// Rules are created at parse time and never modified.
type Rule struct {
	Action   Action          `json:"action"`
	OS       *OSCondition    `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// UnmarshalJSON rejects unknown actions.
func (r *Rule) UnmarshalJSON(data []byte) error {
	type plain Rule
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	switch p.Action {
	case ActionAllow, ActionDisallow:
	default:
		return fmt.Errorf("%w: unknown rule action %q", ErrMalformedManifest, p.Action)
	}
	*r = Rule(p)
	return nil
}

// FeatureSet is the set of launcher features enabled for argument rules.
type FeatureSet map[string]struct{}

// NewFeatureSet builds a set from feature names.
func NewFeatureSet(names ...string) FeatureSet {
	set := make(FeatureSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// DefaultFeatures returns the features the launcher enables by default.
func DefaultFeatures() FeatureSet {
	return NewFeatureSet("has_custom_resolution")
}

// Has reports whether name is enabled.
func (s FeatureSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// verdict computes the rule's result. Each condition that is present
// replaces the verdict of the one before it (name, then arch, then
// features); they are not combined. Feature values are ignored, only the
// presence of each key in the enabled set counts.
func (r Rule) verdict(p types.Platform, features FeatureSet, withFeatures bool) bool {
	allow := true

	if r.OS != nil {
		if r.OS.Name != "" {
			allow = r.OS.Name == p.OS
		}
		if r.OS.Arch != "" {
			allow = p.MatchesArch(r.OS.Arch)
		}
	}

	if withFeatures && r.Features != nil {
		allow = true
		for name := range r.Features {
			if !features.Has(name) {
				allow = false
				break
			}
		}
	}

	if r.Action == ActionDisallow {
		return !allow
	}
	return allow
}

// Evaluate reports whether every rule passes on p with the given enabled
// features. An empty rule list passes. This is the evaluation used for
// conditional arguments.
func Evaluate(rules []Rule, p types.Platform, features FeatureSet) bool {
	for _, r := range rules {
		if !r.verdict(p, features, true) {
			return false
		}
	}
	return true
}

// EvaluatePlatform reports whether every rule passes on p. Feature
// conditions are not consulted. This is the evaluation used for libraries.
func EvaluatePlatform(rules []Rule, p types.Platform) bool {
	for _, r := range rules {
		if !r.verdict(p, nil, false) {
			return false
		}
	}
	return true
}

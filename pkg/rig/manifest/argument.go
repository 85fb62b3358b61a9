package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jamesainslie/rig/pkg/rig/types"
)

// Argument is a launch argument: either a constant string or a list of
// values gated by rules.
type Argument struct {
	// Rules gate Value. Nil for constants.
	Rules []Rule

	// Value holds the argument strings. Constants have exactly one.
	Value []string

	// Conditional is true when the argument came from a {rules, value} object.
	Conditional bool
}

// Constant returns an unconditional argument.
func Constant(s string) Argument {
	return Argument{Value: []string{s}}
}

// UnmarshalJSON accepts a bare string or an object with rules and a value
// that is a string or a list of strings.
func (a *Argument) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Constant(s)
		return nil
	}

	var obj struct {
		Rules []Rule          `json:"rules"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	values, err := stringOrList(obj.Value)
	if err != nil {
		return fmt.Errorf("%w: argument value: %w", ErrMalformedManifest, err)
	}

	*a = Argument{Rules: obj.Rules, Value: values, Conditional: true}
	return nil
}

// MarshalJSON writes the argument back in its published shape.
func (a Argument) MarshalJSON() ([]byte, error) {
	if !a.Conditional && len(a.Value) == 1 {
		return json.Marshal(a.Value[0])
	}
	obj := struct {
		Rules []Rule `json:"rules"`
		Value any    `json:"value"`
	}{Rules: a.Rules, Value: a.Value}
	if len(a.Value) == 1 {
		obj.Value = a.Value[0]
	}
	return json.Marshal(obj)
}

func stringOrList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing value")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Arguments holds the game and JVM argument lists of a manifest.
type Arguments struct {
	Game []Argument `json:"game,omitempty"`
	JVM  []Argument `json:"jvm,omitempty"`
}

// legacyArguments splits the old single-string form into game constants.
func legacyArguments(s string) Arguments {
	var args Arguments
	for _, f := range strings.Fields(s) {
		args.Game = append(args.Game, Constant(f))
	}
	return args
}

// ResolveArguments expands args into plain strings, keeping constants and
// the values of conditional arguments whose rules pass.
func ResolveArguments(args []Argument, p types.Platform, features FeatureSet) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a.Conditional && !Evaluate(a.Rules, p, features) {
			continue
		}
		out = append(out, a.Value...)
	}
	return out
}

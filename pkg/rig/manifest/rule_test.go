package manifest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/rig/pkg/rig/types"
)

var (
	linux64   = types.Platform{OS: types.OSLinux, Arch: types.ArchX64}
	linuxARM  = types.Platform{OS: types.OSLinux, Arch: types.ArchARM64}
	windows64 = types.Platform{OS: types.OSWindows, Arch: types.ArchX64}
	windows32 = types.Platform{OS: types.OSWindows, Arch: types.ArchX86}
	osx64     = types.Platform{OS: types.OSX, Arch: types.ArchX64}
)

func TestEvaluate_Unconditioned(t *testing.T) {
	t.Parallel()

	allow := []Rule{{Action: ActionAllow}}
	disallow := []Rule{{Action: ActionDisallow}}

	for _, p := range []types.Platform{linux64, windows32, osx64} {
		assert.True(t, Evaluate(allow, p, nil), p.String())
		assert.False(t, Evaluate(disallow, p, nil), p.String())
		assert.True(t, EvaluatePlatform(allow, p), p.String())
		assert.False(t, EvaluatePlatform(disallow, p), p.String())
	}
}

func TestEvaluate_EmptyListPasses(t *testing.T) {
	t.Parallel()

	assert.True(t, Evaluate(nil, linux64, nil))
	assert.True(t, EvaluatePlatform([]Rule{}, linux64))
}

func TestEvaluate_OSName(t *testing.T) {
	t.Parallel()

	onlyOSX := []Rule{
		{Action: ActionAllow, OS: &OSCondition{Name: types.OSX}},
	}
	notOSX := []Rule{
		{Action: ActionAllow},
		{Action: ActionDisallow, OS: &OSCondition{Name: types.OSX}},
	}

	assert.True(t, EvaluatePlatform(onlyOSX, osx64))
	assert.False(t, EvaluatePlatform(onlyOSX, linux64))
	assert.False(t, EvaluatePlatform(notOSX, osx64))
	assert.True(t, EvaluatePlatform(notOSX, windows64))
}

func TestEvaluate_ArchOverwritesName(t *testing.T) {
	t.Parallel()

	// Arch replaces the name verdict instead of combining with it.
	rules := []Rule{
		{Action: ActionAllow, OS: &OSCondition{Name: types.OSWindows, Arch: types.ArchX86}},
	}

	assert.True(t, EvaluatePlatform(rules, windows32))
	assert.False(t, EvaluatePlatform(rules, windows64))
	assert.True(t, EvaluatePlatform(rules, types.Platform{OS: types.OSLinux, Arch: types.ArchX86}))
}

func TestEvaluate_ARMCountsAsX64(t *testing.T) {
	t.Parallel()

	rules := []Rule{{Action: ActionAllow, OS: &OSCondition{Arch: types.ArchX64}}}

	assert.True(t, EvaluatePlatform(rules, linux64))
	assert.True(t, EvaluatePlatform(rules, linuxARM))
	assert.False(t, EvaluatePlatform(rules, windows32))
}

func TestEvaluate_FeatureWins(t *testing.T) {
	t.Parallel()

	rules := []Rule{{
		Action:   ActionAllow,
		OS:       &OSCondition{Name: types.OSLinux},
		Features: map[string]bool{"x": true},
	}}

	assert.True(t, Evaluate(rules, windows64, NewFeatureSet("x")))
	assert.False(t, Evaluate(rules, linux64, NewFeatureSet("y")))
}

func TestEvaluate_FeatureValuesIgnored(t *testing.T) {
	t.Parallel()

	rules := []Rule{{Action: ActionAllow, Features: map[string]bool{"is_demo_user": false}}}

	assert.True(t, Evaluate(rules, linux64, NewFeatureSet("is_demo_user")))
	assert.False(t, Evaluate(rules, linux64, DefaultFeatures()))
}

func TestEvaluatePlatform_IgnoresFeatures(t *testing.T) {
	t.Parallel()

	rules := []Rule{{Action: ActionAllow, Features: map[string]bool{"missing": true}}}

	assert.True(t, EvaluatePlatform(rules, linux64))
	assert.False(t, Evaluate(rules, linux64, nil))
}

func TestRule_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("full rule", func(t *testing.T) {
		t.Parallel()

		var r Rule
		err := json.Unmarshal([]byte(`{"action":"disallow","os":{"name":"osx","version":"^10\\.5\\.\\d$","arch":"x86"}}`), &r)
		require.NoError(t, err)
		assert.Equal(t, ActionDisallow, r.Action)
		require.NotNil(t, r.OS)
		assert.Equal(t, types.OSX, r.OS.Name)
		assert.Equal(t, types.ArchX86, r.OS.Arch)
		assert.Equal(t, `^10\.5\.\d$`, r.OS.Version)
	})

	t.Run("unknown action", func(t *testing.T) {
		t.Parallel()

		var r Rule
		err := json.Unmarshal([]byte(`{"action":"maybe"}`), &r)
		require.ErrorIs(t, err, ErrMalformedManifest)
	})
}

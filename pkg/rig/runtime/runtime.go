// Package runtime models the published Java runtime components: the
// per-platform component index and the file manifest of a single component.
package runtime

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/jamesainslie/rig/pkg/rig/manifest"
	"github.com/jamesainslie/rig/pkg/rig/types"
)

// Target is a platform key of the runtime index.
type Target string

// Runtime targets.
const (
	TargetGameCore     Target = "gamecore"
	TargetLinux        Target = "linux"
	TargetLinuxI386    Target = "linux-i386"
	TargetMacOS        Target = "mac-os"
	TargetMacOSARM64   Target = "mac-os-arm64"
	TargetWindowsARM64 Target = "windows-arm64"
	TargetWindowsX64   Target = "windows-x64"
	TargetWindowsX86   Target = "windows-x86"
)

// TargetFor maps a platform to its runtime target.
func TargetFor(p types.Platform) (Target, error) {
	switch {
	case p.OS == types.OSLinux && p.Arch == types.ArchX64:
		return TargetLinux, nil
	case p.OS == types.OSLinux && p.Arch == types.ArchX86:
		return TargetLinuxI386, nil
	case p.OS == types.OSX && p.Arch == types.ArchX64:
		return TargetMacOS, nil
	case p.OS == types.OSX && p.Arch == types.ArchARM64:
		return TargetMacOSARM64, nil
	case p.OS == types.OSWindows && p.Arch == types.ArchX64:
		return TargetWindowsX64, nil
	case p.OS == types.OSWindows && p.Arch == types.ArchX86:
		return TargetWindowsX86, nil
	case p.OS == types.OSWindows && p.Arch == types.ArchARM64:
		return TargetWindowsARM64, nil
	default:
		return "", fmt.Errorf("%w: no runtime target for %s", types.ErrUnsupportedPlatform, p)
	}
}

// ComponentType identifies a runtime component, as named by a manifest's
// javaVersion.component.
type ComponentType string

// Known components.
const (
	JavaRuntimeAlpha         ComponentType = "java-runtime-alpha"
	JavaRuntimeBeta          ComponentType = "java-runtime-beta"
	JavaRuntimeGamma         ComponentType = "java-runtime-gamma"
	JavaRuntimeGammaSnapshot ComponentType = "java-runtime-gamma-snapshot"
	JavaRuntimeDelta         ComponentType = "java-runtime-delta"
	JreLegacy                ComponentType = "jre-legacy"
	MinecraftJavaExe         ComponentType = "minecraft-java-exe"
)

var knownComponents = []ComponentType{
	JavaRuntimeAlpha,
	JavaRuntimeBeta,
	JavaRuntimeGamma,
	JavaRuntimeGammaSnapshot,
	JavaRuntimeDelta,
	JreLegacy,
	MinecraftJavaExe,
}

// ParseComponentType validates a component id.
func ParseComponentType(s string) (ComponentType, error) {
	c := ComponentType(s)
	if !slices.Contains(knownComponents, c) {
		return "", fmt.Errorf("%w: unknown runtime component %q", manifest.ErrInvalidManifest, s)
	}
	return c, nil
}

// Availability is the staged rollout information of a component.
type Availability struct {
	Group    int `json:"group"`
	Progress int `json:"progress"`
}

// Version names a component build.
type Version struct {
	Name     string `json:"name"`
	Released string `json:"released"`
}

// Component is one published build of a runtime component.
type Component struct {
	Availability Availability      `json:"availability"`
	Manifest     manifest.Download `json:"manifest"`
	Version      Version           `json:"version"`
}

// Components is the runtime index: target, then component, then builds.
// Component keys are kept as published, unknown ones included.
type Components map[Target]map[ComponentType][]Component

// ParseComponents decodes the runtime index document.
func ParseComponents(data []byte) (Components, error) {
	var c Components
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: runtime index: %w", manifest.ErrMalformedManifest, err)
	}
	return c, nil
}

// Select returns the first build of component for p.
func (c Components) Select(p types.Platform, component ComponentType) (Component, error) {
	target, err := TargetFor(p)
	if err != nil {
		return Component{}, err
	}

	byType, ok := c[target]
	if !ok {
		return Component{}, fmt.Errorf("%w: runtime index has no target %s", types.ErrUnsupportedPlatform, target)
	}

	builds := byType[component]
	if len(builds) == 0 {
		return Component{}, fmt.Errorf("%w: %s is not published for %s", types.ErrUnsupportedPlatform, component, target)
	}
	return builds[0], nil
}

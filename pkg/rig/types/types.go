// Package types provides core data types shared by the rig packages.
// It includes the host platform model, install items produced by the planner
// and consumed by the download engine, and helpers for parsing and
// formatting sizes.
package types

import (
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB int64 = 1024
	MiB int64 = 1024 * KiB
	GiB int64 = 1024 * MiB
	TiB int64 = 1024 * GiB
)

// UnknownSize marks an item or transfer whose size is not known in advance.
const UnknownSize int64 = -1

// OS identifies an operating system family as named in version manifests.
type OS string

// Operating systems understood by manifest rules.
const (
	OSLinux   OS = "linux"
	OSWindows OS = "windows"
	OSX       OS = "osx"
)

// Arch identifies a CPU architecture.
type Arch string

// Architectures. Manifests only ever name x64 and x86; arm64 is tracked so
// runtime targets can be selected precisely.
const (
	ArchX64   Arch = "x64"
	ArchX86   Arch = "x86"
	ArchARM64 Arch = "arm64"
)

// ErrUnsupportedPlatform is returned when the host (or a requested platform)
// cannot be mapped to anything the distribution publishes.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Platform is the operating system and architecture an install targets.
type Platform struct {
	OS   OS   `json:"os" yaml:"os"`
	Arch Arch `json:"arch" yaml:"arch"`
}

// String returns "os/arch".
func (p Platform) String() string {
	return string(p.OS) + "/" + string(p.Arch)
}

// MatchesArch reports whether a manifest architecture applies to p.
// 64-bit ARM hosts are treated as x64, as the official launcher does.
func (p Platform) MatchesArch(a Arch) bool {
	switch a {
	case ArchX64:
		return p.Arch == ArchX64 || p.Arch == ArchARM64
	default:
		return p.Arch == a
	}
}

// CurrentPlatform returns the platform of the running process.
func CurrentPlatform() (Platform, error) {
	return PlatformFor(runtime.GOOS, runtime.GOARCH)
}

// PlatformFor maps Go's GOOS/GOARCH names to a Platform.
func PlatformFor(goos, goarch string) (Platform, error) {
	var p Platform

	switch goos {
	case "linux":
		p.OS = OSLinux
	case "windows":
		p.OS = OSWindows
	case "darwin":
		p.OS = OSX
	default:
		return Platform{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
	}

	switch goarch {
	case "amd64":
		p.Arch = ArchX64
	case "386":
		p.Arch = ArchX86
	case "arm64":
		p.Arch = ArchARM64
	default:
		return Platform{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedPlatform, goos, goarch)
	}

	return p, nil
}

// Kind is the logical resource kind of an install item. Each kind maps to
// one directory of the canonical tree.
type Kind int

// Resource kinds.
const (
	KindLibrary Kind = iota
	KindAssetObject
	KindAssetIndex
	KindVersion
	KindVersionNative
	KindRuntime
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindLibrary:
		return "library"
	case KindAssetObject:
		return "asset-object"
	case KindAssetIndex:
		return "asset-index"
	case KindVersion:
		return "version"
	case KindVersionNative:
		return "version-native"
	case KindRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Item is one planned remote-to-local file transfer.
// Items are plain values: the planner creates them and the download engine
// consumes each exactly once.
type Item struct {
	// Kind is the canonical resource kind.
	Kind Kind `json:"kind" yaml:"kind"`

	// URL is the remote location.
	URL string `json:"url" yaml:"url"`

	// Path is the destination relative to the install root.
	Path string `json:"path" yaml:"path"`

	// Size is the expected size in bytes, or UnknownSize.
	Size int64 `json:"size" yaml:"size"`

	// SHA1 is the expected lowercase hex digest, empty when unknown.
	SHA1 string `json:"sha1,omitempty" yaml:"sha1,omitempty"`
}

// HasSize reports whether the expected size is known.
func (i Item) HasSize() bool {
	return i.Size >= 0
}

// HumanSize returns the expected size formatted for display.
func (i Item) HumanSize() string {
	if !i.HasSize() {
		return "?"
	}
	return FormatSize(i.Size)
}

// TotalSize sums the known sizes of items. Items of unknown size count as zero.
func TotalSize(items []Item) int64 {
	var total int64
	for _, it := range items {
		if it.HasSize() {
			total += it.Size
		}
	}
	return total
}

// sizePattern matches size strings like "100M", "2G", "500K", "1.5GB", etc.
var sizePattern = regexp.MustCompile(`(?i)^\s*([0-9]+(?:\.[0-9]+)?)\s*([KMGT]?(?:i?B)?)\s*$`)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// ErrNegativeSize indicates that a negative size value was provided.
var ErrNegativeSize = errors.New("size cannot be negative")

// ParseSize parses a human-readable size string and returns the size in bytes.
// It accepts plain bytes ("1024") and K/M/G/T suffixes with optional "B" or
// "iB" ("100K", "50MB", "2GiB"). Units are binary. Decimal values are
// truncated to the nearest byte.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}

	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeSize
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	suffix := strings.ToUpper(matches[2])
	suffix = strings.TrimSuffix(suffix, "IB")
	suffix = strings.TrimSuffix(suffix, "B")

	var multiplier int64
	switch suffix {
	case "":
		multiplier = 1
	case "K":
		multiplier = KiB
	case "M":
		multiplier = MiB
	case "G":
		multiplier = GiB
	case "T":
		multiplier = TiB
	default:
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, suffix)
	}

	return int64(value * float64(multiplier)), nil
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units, e.g. FormatSize(1536*1024) returns "1.5 MiB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return "?"
	}
	return humanize.IBytes(uint64(bytes))
}

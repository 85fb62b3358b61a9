package types

import (
	"errors"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		// Basic byte values
		{name: "plain bytes", input: "1024", want: 1024, wantErr: false},
		{name: "zero bytes", input: "0", want: 0, wantErr: false},
		{name: "bytes with B suffix", input: "512B", want: 512, wantErr: false},
		{name: "bytes with lowercase b", input: "512b", want: 512, wantErr: false},

		// Kilobytes
		{name: "kilobytes uppercase", input: "100K", want: 100 * 1024, wantErr: false},
		{name: "kilobytes lowercase", input: "100k", want: 100 * 1024, wantErr: false},
		{name: "kilobytes with B", input: "100KB", want: 100 * 1024, wantErr: false},
		{name: "kilobytes with iB", input: "100KiB", want: 100 * 1024, wantErr: false},

		// Megabytes
		{name: "megabytes uppercase", input: "50M", want: 50 * 1024 * 1024, wantErr: false},
		{name: "megabytes lowercase", input: "50m", want: 50 * 1024 * 1024, wantErr: false},
		{name: "megabytes with B", input: "50MB", want: 50 * 1024 * 1024, wantErr: false},
		{name: "megabytes with iB", input: "50MiB", want: 50 * 1024 * 1024, wantErr: false},

		// Gigabytes
		{name: "gigabytes uppercase", input: "2G", want: 2 * 1024 * 1024 * 1024, wantErr: false},
		{name: "gigabytes lowercase", input: "2g", want: 2 * 1024 * 1024 * 1024, wantErr: false},
		{name: "gigabytes with B", input: "2GB", want: 2 * 1024 * 1024 * 1024, wantErr: false},
		{name: "gigabytes with iB", input: "2GiB", want: 2 * 1024 * 1024 * 1024, wantErr: false},

		// Terabytes
		{name: "terabytes uppercase", input: "1T", want: 1024 * 1024 * 1024 * 1024, wantErr: false},
		{name: "terabytes lowercase", input: "1t", want: 1024 * 1024 * 1024 * 1024, wantErr: false},
		{name: "terabytes with B", input: "1TB", want: 1024 * 1024 * 1024 * 1024, wantErr: false},
		{name: "terabytes with iB", input: "1TiB", want: 1024 * 1024 * 1024 * 1024, wantErr: false},

		// Whitespace handling
		{name: "leading whitespace", input: "  100M", want: 100 * 1024 * 1024, wantErr: false},
		{name: "trailing whitespace", input: "100M  ", want: 100 * 1024 * 1024, wantErr: false},
		{name: "both whitespace", input: "  100M  ", want: 100 * 1024 * 1024, wantErr: false},

		// Edge cases
		{name: "large value", input: "10T", want: 10 * 1024 * 1024 * 1024 * 1024, wantErr: false},
		{name: "decimal values truncated", input: "1.5G", want: 1610612736, wantErr: false},

		// Error cases
		{name: "empty string", input: "", wantErr: true},
		{name: "only whitespace", input: "   ", wantErr: true},
		{name: "invalid suffix", input: "100X", wantErr: true},
		{name: "negative value", input: "-100M", wantErr: true},
		{name: "letters only", input: "abc", wantErr: true},
		{name: "suffix only", input: "M", wantErr: true},
		{name: "invalid format", input: "100M100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "zero", bytes: 0, want: "0 B"},
		{name: "bytes", bytes: 500, want: "500 B"},
		{name: "kilobytes", bytes: 1024, want: "1.0 KiB"},
		{name: "megabytes", bytes: 1024 * 1024, want: "1.0 MiB"},
		{name: "gigabytes", bytes: 1024 * 1024 * 1024, want: "1.0 GiB"},
		{name: "terabytes", bytes: 1024 * 1024 * 1024 * 1024, want: "1.0 TiB"},
		{name: "mixed size", bytes: 1536 * 1024, want: "1.5 MiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatSize(tt.bytes)
			if got != tt.want {
				t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestItem_HumanSize(t *testing.T) {
	tests := []struct {
		name string
		size int64
		want string
	}{
		{name: "unknown", size: UnknownSize, want: "?"},
		{name: "zero", size: 0, want: "0 B"},
		{name: "kilobyte file", size: 2048, want: "2.0 KiB"},
		{name: "megabyte file", size: 5 * 1024 * 1024, want: "5.0 MiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := Item{Size: tt.size}
			if got := it.HumanSize(); got != tt.want {
				t.Errorf("Item.HumanSize() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTotalSize(t *testing.T) {
	items := []Item{{Size: 10}, {Size: UnknownSize}, {Size: 32}}
	if got := TotalSize(items); got != 42 {
		t.Errorf("TotalSize() = %d, want 42", got)
	}
}

func TestPlatformFor(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         Platform
		wantErr      bool
	}{
		{goos: "linux", goarch: "amd64", want: Platform{OS: OSLinux, Arch: ArchX64}},
		{goos: "darwin", goarch: "arm64", want: Platform{OS: OSX, Arch: ArchARM64}},
		{goos: "windows", goarch: "386", want: Platform{OS: OSWindows, Arch: ArchX86}},
		{goos: "plan9", goarch: "amd64", wantErr: true},
		{goos: "linux", goarch: "riscv64", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := PlatformFor(tt.goos, tt.goarch)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedPlatform) {
					t.Fatalf("PlatformFor() error = %v, want ErrUnsupportedPlatform", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PlatformFor() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("PlatformFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlatform_MatchesArch(t *testing.T) {
	arm := Platform{OS: OSX, Arch: ArchARM64}
	if !arm.MatchesArch(ArchX64) {
		t.Error("arm64 should match x64 rules")
	}
	if arm.MatchesArch(ArchX86) {
		t.Error("arm64 should not match x86 rules")
	}

	x86 := Platform{OS: OSWindows, Arch: ArchX86}
	if !x86.MatchesArch(ArchX86) || x86.MatchesArch(ArchX64) {
		t.Error("x86 should match only x86 rules")
	}
}

func TestKind_String(t *testing.T) {
	if KindAssetObject.String() != "asset-object" {
		t.Errorf("KindAssetObject.String() = %q", KindAssetObject.String())
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("Kind(99).String() = %q", Kind(99).String())
	}
}

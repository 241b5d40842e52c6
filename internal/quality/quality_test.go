package quality_test

import (
	"testing"

	"reelforge/internal/quality"
)

func TestParseTier(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  quality.Tier
	}{
		{"low", "low", quality.TierLow},
		{"medium", "medium", quality.TierMedium},
		{"high", "high", quality.TierHigh},
		{"uppercase", "HIGH", quality.TierHigh},
		{"padded", "  medium  ", quality.TierMedium},
		{"unknown falls back to low", "ultra", quality.TierLow},
		{"empty falls back to low", "", quality.TierLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := quality.ParseTier(tc.input); got != tc.want {
				t.Fatalf("ParseTier(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestFlagDefinedForAllTiers(t *testing.T) {
	want := map[quality.Tier]string{
		quality.TierLow:    "-ql",
		quality.TierMedium: "-qm",
		quality.TierHigh:   "-qh",
	}
	for _, tier := range quality.AllTiers() {
		if got := tier.Flag(); got != want[tier] {
			t.Fatalf("Flag(%s) = %q, want %q", tier, got, want[tier])
		}
	}
	// An unrecognized tier value still yields the low flag rather than panicking
	// or returning an empty token.
	if got := quality.Tier("bogus").Flag(); got != "-ql" {
		t.Fatalf("Flag(bogus) = %q, want -ql", got)
	}
}

func TestOutputDirName(t *testing.T) {
	want := map[quality.Tier]string{
		quality.TierLow:    "480p15",
		quality.TierMedium: "720p30",
		quality.TierHigh:   "1080p60",
	}
	for _, tier := range quality.AllTiers() {
		if got := tier.OutputDirName(); got != want[tier] {
			t.Fatalf("OutputDirName(%s) = %q, want %q", tier, got, want[tier])
		}
	}
}

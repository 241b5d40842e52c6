package quality

import "strings"

// Tier identifies a rendering speed/fidelity setting.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

var allTiers = []Tier{TierLow, TierMedium, TierHigh}

// AllTiers returns the ordered list of known tiers.
func AllTiers() []Tier {
	cp := make([]Tier, len(allTiers))
	copy(cp, allTiers)
	return cp
}

// ParseTier normalizes a string into a known Tier. Unknown or empty values
// fall back to TierLow; rendering at the fastest setting is always safe,
// failing a job over a typo is not.
func ParseTier(value string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(value))) {
	case TierMedium:
		return TierMedium
	case TierHigh:
		return TierHigh
	default:
		return TierLow
	}
}

// Flag returns the renderer quality flag for the tier.
func (t Tier) Flag() string {
	switch t {
	case TierMedium:
		return "-qm"
	case TierHigh:
		return "-qh"
	default:
		return "-ql"
	}
}

// OutputDirName returns the quality-specific media subdirectory the renderer
// writes into. Used as the first stop during artifact discovery.
func (t Tier) OutputDirName() string {
	switch t {
	case TierMedium:
		return "720p30"
	case TierHigh:
		return "1080p60"
	default:
		return "480p15"
	}
}

// String implements fmt.Stringer.
func (t Tier) String() string {
	return string(t)
}

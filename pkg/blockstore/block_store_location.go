package blockstore

import (
	"fmt"
)

const (
	// AnyTier is a wildcard tier alias that matches every tier.
	AnyTier = ""
	// AnyDir is a wildcard directory index that matches every
	// directory within a tier.
	AnyDir = -1
	// AnyMedium is a wildcard medium type.
	AnyMedium = ""
)

// BlockStoreLocation selects a directory, a tier or any location
// within the block store. It is used both to describe where a block
// is stored and to constrain allocation.
type BlockStoreLocation struct {
	TierAlias  string `json:"tierAlias"`
	DirIndex   int    `json:"dirIndex"`
	MediumType string `json:"mediumType"`
}

// AnyTierLocation returns a location that matches all directories of
// all tiers.
func AnyTierLocation() BlockStoreLocation {
	return BlockStoreLocation{TierAlias: AnyTier, DirIndex: AnyDir, MediumType: AnyMedium}
}

// AnyDirInTier returns a location that matches all directories of a
// single tier.
func AnyDirInTier(tierAlias string) BlockStoreLocation {
	return BlockStoreLocation{TierAlias: tierAlias, DirIndex: AnyDir, MediumType: AnyMedium}
}

// AnyDirInAnyTierWithMedium returns a location that matches all
// directories that use a given medium type.
func AnyDirInAnyTierWithMedium(mediumType string) BlockStoreLocation {
	return BlockStoreLocation{TierAlias: AnyTier, DirIndex: AnyDir, MediumType: mediumType}
}

// IsAnyTier returns whether the location matches all tiers.
func (l BlockStoreLocation) IsAnyTier() bool {
	return l.TierAlias == AnyTier
}

// IsAnyDir returns whether the location matches all directories of a
// tier.
func (l BlockStoreLocation) IsAnyDir() bool {
	return l.DirIndex == AnyDir
}

// BelongsTo returns whether the location is contained in another,
// possibly wildcarded, location.
func (l BlockStoreLocation) BelongsTo(other BlockStoreLocation) bool {
	return (other.IsAnyTier() || l.TierAlias == other.TierAlias) &&
		(other.IsAnyDir() || l.DirIndex == other.DirIndex) &&
		(other.MediumType == AnyMedium || l.MediumType == other.MediumType)
}

func (l BlockStoreLocation) String() string {
	tier := l.TierAlias
	if l.IsAnyTier() {
		tier = "any tier"
	}
	if l.IsAnyDir() {
		if l.MediumType != AnyMedium {
			return fmt.Sprintf("any dir in %s with medium %s", tier, l.MediumType)
		}
		return fmt.Sprintf("any dir in %s", tier)
	}
	return fmt.Sprintf("%s dir %d", tier, l.DirIndex)
}

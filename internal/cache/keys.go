package cache

import (
	"fmt"
	"time"
)

const (
	CommunityAliasKeyPrefix = "community:alias:%s"
	ActiveTiersKey          = "tiers:active"
)

const (
	CommunityTTL = 10 * time.Minute
	TierTTL      = 30 * time.Minute
)

// Cache names used as metric labels.
const (
	NameCommunity = "community"
	NameTiers     = "tiers"
)

func CommunityAliasKey(alias string) string {
	return fmt.Sprintf(CommunityAliasKeyPrefix, alias)
}

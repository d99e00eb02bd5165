package rules

import (
	"time"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

// Priority tiers used by discovery ordering. Lower sorts first.
const (
	TierBoost   = 0
	TierVIP     = 1
	TierPremium = 2
	TierFree    = 3
)

// ActivePremiumType returns the subscription type if now < premium_until, else none.
func ActivePremiumType(p model.Profile, now time.Time) enums.PremiumType {
	if p.PremiumType == enums.PremiumNone || p.PremiumUntil == nil {
		return enums.PremiumNone
	}
	if !now.Before(*p.PremiumUntil) {
		return enums.PremiumNone
	}
	return p.PremiumType
}

func IsPremiumActive(p model.Profile, now time.Time) bool {
	return ActivePremiumType(p, now) != enums.PremiumNone
}

func IsVIPActive(p model.Profile, now time.Time) bool {
	return ActivePremiumType(p, now) == enums.PremiumVIP
}

func IsBoostActive(p model.Profile, now time.Time) bool {
	return p.BoostUntil != nil && now.Before(*p.BoostUntil)
}

func PriorityTier(p model.Profile, now time.Time) int {
	switch {
	case IsBoostActive(p, now):
		return TierBoost
	case IsVIPActive(p, now):
		return TierVIP
	case IsPremiumActive(p, now):
		return TierPremium
	default:
		return TierFree
	}
}

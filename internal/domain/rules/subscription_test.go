package rules

import (
	"testing"
	"time"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

func TestPriorityTier(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name    string
		profile model.Profile
		want    int
	}{
		{name: "boost beats vip", profile: model.Profile{BoostUntil: &future, PremiumType: enums.PremiumVIP, PremiumUntil: &future}, want: TierBoost},
		{name: "active vip", profile: model.Profile{PremiumType: enums.PremiumVIP, PremiumUntil: &future}, want: TierVIP},
		{name: "active premium", profile: model.Profile{PremiumType: enums.PremiumPremium, PremiumUntil: &future}, want: TierPremium},
		{name: "expired vip is free", profile: model.Profile{PremiumType: enums.PremiumVIP, PremiumUntil: &past}, want: TierFree},
		{name: "expired boost falls through", profile: model.Profile{BoostUntil: &past, PremiumType: enums.PremiumPremium, PremiumUntil: &future}, want: TierPremium},
		{name: "premium without expiry is free", profile: model.Profile{PremiumType: enums.PremiumPremium}, want: TierFree},
		{name: "nothing", profile: model.Profile{}, want: TierFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriorityTier(tt.profile, now); got != tt.want {
				t.Fatalf("unexpected tier: got %d want %d", got, tt.want)
			}
		})
	}
}

func TestActivePremiumTypeExpiresAtBoundary(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	p := model.Profile{PremiumType: enums.PremiumPremium, PremiumUntil: &now}
	if got := ActivePremiumType(p, now); got != enums.PremiumNone {
		t.Fatalf("subscription must be inactive when now == premium_until, got %q", got)
	}
}

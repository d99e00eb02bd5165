package model

import (
	"time"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
)

const MaxPhotos = 6

// Profile is one Telegram account. Premium and boost fields are only meaningful
// together with their expiry instants; see rules.IsPremiumActive.
type Profile struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	Name       string `json:"name"`

	Gender     enums.Gender `json:"gender"`
	Age        int          `json:"age"`
	City       string       `json:"city"`
	LookingFor enums.Gender `json:"looking_for"`
	About      string       `json:"about"`

	Photo  string   `json:"photo"`
	Photos []string `json:"photos"`

	IsActive      bool `json:"is_active"`
	ProfileHidden bool `json:"profile_hidden"`

	PremiumType      enums.PremiumType `json:"premium_type"`
	PremiumUntil     *time.Time        `json:"premium_until"`
	SuperlikeCredits int               `json:"superlike_credits"`
	BoostUntil       *time.Time        `json:"boost_until"`
	BoostsThisWeek   int               `json:"boosts_this_week"`
	BoostWeekReset   *time.Time        `json:"boost_week_reset"`

	ReferredBy      *int64 `json:"referred_by"`
	ReferralBalance int64  `json:"referral_balance"`

	IcebreakerUsed         int        `json:"icebreaker_used"`
	AIMatchmakingFirstUsed *time.Time `json:"ai_matchmaking_first_used"`
	LastSeen               *time.Time `json:"last_seen"`
	CreatedAt              time.Time  `json:"created_at"`

	ProfileAnswers map[string]string `json:"profile_answers"`
}

// PrimaryPhoto returns photos[0] when present, else the legacy photo reference.
func (p Profile) PrimaryPhoto() string {
	if len(p.Photos) > 0 && p.Photos[0] != "" {
		return p.Photos[0]
	}
	return p.Photo
}

// SyncPrimaryPhoto copies photos[0] into the legacy photo field, clearing it once no slots remain.
func (p *Profile) SyncPrimaryPhoto() {
	if len(p.Photos) == 0 {
		p.Photo = ""
		return
	}
	p.Photo = p.Photos[0]
}

// EligibleForDiscovery reports whether the profile may be shown to other users.
func (p Profile) EligibleForDiscovery() bool {
	return p.IsActive && !p.ProfileHidden
}

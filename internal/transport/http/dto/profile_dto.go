package dto

type ProfileResponse struct {
	TelegramID      int64             `json:"telegram_id"`
	Name            string            `json:"name"`
	Username        *string           `json:"username"`
	Gender          *string           `json:"gender"`
	Age             *int              `json:"age"`
	City            *string           `json:"city"`
	LookingFor      *string           `json:"looking_for"`
	About           *string           `json:"about"`
	Photo           *string           `json:"photo"`
	Photos          []string          `json:"photos"`
	MediaTypes      []string          `json:"media_types"`
	IsActive        bool              `json:"is_active"`
	ReferralBalance float64           `json:"referral_balance"`
	LastSeen        *string           `json:"last_seen"`
	ProfileAnswers  map[string]string `json:"profile_answers"`
	PremiumType     *string           `json:"premium_type"`
	DistanceKM      *int              `json:"distance_km,omitempty"`
}

type ProfilesPageResponse struct {
	Count  int64             `json:"count"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Items  []ProfileResponse `json:"items"`
}

type ProfilesResponse struct {
	Items []ProfileResponse `json:"items"`
}

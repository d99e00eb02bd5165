package dto

type ConversationTurn struct {
	Role    string `json:"role" validate:"chat_role"`
	Content string `json:"content" validate:"max=4000"`
}

type MatchmakingRequest struct {
	UserID       int64              `json:"user_id" validate:"gt=0"`
	Message      string             `json:"message" validate:"notblank,max=2000"`
	Conversation []ConversationTurn `json:"conversation" validate:"max=50,dive"`
	ShownIDs     []int64            `json:"shown_ids" validate:"max=500"`
}

type MatchmakingResponse struct {
	Reply   string            `json:"reply"`
	Matches []ProfileResponse `json:"matches"`
}

type MatchmakingStatusResponse struct {
	Access         bool `json:"access"`
	IsVIP          bool `json:"is_vip"`
	TrialActive    bool `json:"trial_active"`
	TrialHoursLeft int  `json:"trial_hours_left"`
	TrialExpired   bool `json:"trial_expired"`
}

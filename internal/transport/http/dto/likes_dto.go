package dto

type CreateLikeRequest struct {
	FromUser    int64 `json:"from_user" validate:"gt=0"`
	ToUser      int64 `json:"to_user" validate:"gt=0,nefield=FromUser"`
	IsSuperlike bool  `json:"is_superlike"`
}

type DeleteLikeRequest struct {
	FromUser int64 `json:"from_user" validate:"gt=0"`
	ToUser   int64 `json:"to_user" validate:"gt=0"`
}

type LikeResponse struct {
	FromUser  int64  `json:"from_user"`
	ToUser    int64  `json:"to_user"`
	CreatedAt string `json:"created_at"`
	IsMatch   bool   `json:"is_match"`
	// LikesLeft is omitted for users without a daily cap.
	LikesLeft *int `json:"likes_left,omitempty"`
}

type LikeStatusResponse struct {
	Status bool `json:"status"`
}

type DeleteLikeResponse struct {
	Status string `json:"status"`
}

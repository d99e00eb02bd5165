package dto

type PhotoLikeRequest struct {
	FromUser   int64 `json:"from_user" validate:"gt=0"`
	OwnerID    int64 `json:"owner_id" validate:"gt=0"`
	PhotoIndex int   `json:"photo_index" validate:"gte=0"`
}

type PhotoLikeResponse struct {
	Liked     bool `json:"liked"`
	Count     int  `json:"count"`
	LikedByMe bool `json:"liked_by_me"`
}

type PhotoCommentRequest struct {
	FromUser   int64  `json:"from_user" validate:"gt=0"`
	OwnerID    int64  `json:"owner_id" validate:"gt=0"`
	PhotoIndex int    `json:"photo_index" validate:"gte=0"`
	Text       string `json:"text" validate:"notblank"`
}

type PhotoCommentItem struct {
	ID        string `json:"id"`
	FromUser  int64  `json:"from_user"`
	FromName  string `json:"from_name"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type PhotoCommentsResponse struct {
	Comments []PhotoCommentItem `json:"comments"`
}

type PhotoUploadResponse struct {
	Index int    `json:"index"`
	URL   string `json:"url"`
	Kind  string `json:"media_type"`
}

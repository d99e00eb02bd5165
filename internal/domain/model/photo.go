package model

import "time"

type PhotoSlot struct {
	OwnerID    int64 `json:"owner_id"`
	PhotoIndex int   `json:"photo_index"`
}

type PhotoLike struct {
	PhotoSlot
	FromUser  int64     `json:"from_user"`
	CreatedAt time.Time `json:"created_at"`
}

type PhotoLikesInfo struct {
	Count     int  `json:"count"`
	LikedByMe bool `json:"liked_by_me"`
}

type PhotoComment struct {
	ID string `json:"id"`
	PhotoSlot
	FromUser  int64     `json:"from_user"`
	FromName  string    `json:"from_name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

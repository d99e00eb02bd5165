package model

import "time"

type Like struct {
	FromUser  int64     `json:"from_user"`
	ToUser    int64     `json:"to_user"`
	CreatedAt time.Time `json:"created_at"`
}

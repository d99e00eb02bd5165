package model

import "errors"

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrLikeNotFound    = errors.New("like not found")
	ErrCityNotCached   = errors.New("city coordinates not cached")
)

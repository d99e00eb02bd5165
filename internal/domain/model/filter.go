package model

import "github.com/babymaxMAX/lsj-love/internal/domain/enums"

// CandidateFilter is one discovery query. Stores always add is_active and
// not profile_hidden, and return rows in insertion order.
type CandidateFilter struct {
	ExcludeIDs []int64
	MinAge     int
	MaxAge     int
	Gender     enums.Gender
	Cities     []string
	Limit      int
}

// HasCityFilter distinguishes "any city" (nil) from a city list.
func (f CandidateFilter) HasCityFilter() bool {
	return len(f.Cities) > 0
}

type Page struct {
	Limit  int
	Offset int
}

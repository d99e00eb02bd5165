package candidates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	"github.com/babymaxMAX/lsj-love/internal/domain/rules"
)

const defaultAgeSpread = 5

var ErrNotFound = errors.New("not found")

type ProfileStore interface {
	Get(ctx context.Context, telegramID int64) (model.Profile, error)
	ListCandidates(ctx context.Context, f model.CandidateFilter) ([]model.Profile, error)
}

type NeighborLookup interface {
	Neighbors(city string) []string
}

// Stage names the fallback query that produced a selection.
type Stage string

const (
	StageNone      Stage = ""
	StageCity      Stage = "city"
	StageNeighbors Stage = "neighbors"
	StageGlobal    Stage = "global"
)

type Config struct {
	AgeSpread int
}

type Options struct {
	Limit int
}

type Selection struct {
	Profiles []model.Profile
	Stage    Stage
}

type stageQuery struct {
	stage  Stage
	cities []string
}

type Selector struct {
	store     ProfileStore
	neighbors NeighborLookup
	cfg       Config
	now       func() time.Time
}

func NewSelector(store ProfileStore, neighbors NeighborLookup, cfg Config) *Selector {
	if cfg.AgeSpread <= 0 {
		cfg.AgeSpread = defaultAgeSpread
	}
	return &Selector{
		store:     store,
		neighbors: neighbors,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Select returns the ordered discovery candidates for requesterID.
func (s *Selector) Select(ctx context.Context, requesterID int64, excludeIDs []int64) ([]model.Profile, error) {
	selection, err := s.SelectWithOptions(ctx, requesterID, excludeIDs, Options{})
	if err != nil {
		return nil, err
	}
	return selection.Profiles, nil
}

func (s *Selector) SelectWithOptions(ctx context.Context, requesterID int64, excludeIDs []int64, opts Options) (Selection, error) {
	requester, err := s.store.Get(ctx, requesterID)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return Selection{}, fmt.Errorf("requester %d: %w", requesterID, ErrNotFound)
		}
		return Selection{}, fmt.Errorf("load requester: %w", err)
	}

	base := s.baseFilter(requester, excludeIDs)
	city := strings.TrimSpace(requester.City)

	stages := []stageQuery{}
	if city != "" {
		stages = append(stages, stageQuery{stage: StageCity, cities: []string{city}})
		if s.neighbors != nil {
			if near := s.neighbors.Neighbors(city); len(near) > 0 {
				stages = append(stages, stageQuery{stage: StageNeighbors, cities: near})
			}
		}
	}
	stages = append(stages, stageQuery{stage: StageGlobal})

	for _, st := range stages {
		f := base
		f.Cities = st.cities

		items, err := s.store.ListCandidates(ctx, f)
		if err != nil {
			return Selection{}, fmt.Errorf("list %s candidates: %w", st.stage, err)
		}
		items = visibleOnly(items)
		if len(items) == 0 {
			continue
		}

		SortByPriority(items, s.now())
		if opts.Limit > 0 && len(items) > opts.Limit {
			items = items[:opts.Limit]
		}
		return Selection{Profiles: items, Stage: st.stage}, nil
	}

	return Selection{Profiles: []model.Profile{}, Stage: StageNone}, nil
}

func (s *Selector) baseFilter(requester model.Profile, excludeIDs []int64) model.CandidateFilter {
	exclude := make([]int64, 0, len(excludeIDs)+1)
	seen := make(map[int64]struct{}, len(excludeIDs)+1)
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		exclude = append(exclude, id)
	}
	for _, id := range excludeIDs {
		add(id)
	}
	add(requester.TelegramID)

	f := model.CandidateFilter{
		ExcludeIDs: exclude,
		Gender:     requester.Gender.Opposite(),
	}
	if requester.Age > 0 {
		f.MinAge = requester.Age - s.cfg.AgeSpread
		if f.MinAge < 1 {
			f.MinAge = 1
		}
		f.MaxAge = requester.Age + s.cfg.AgeSpread
	}
	return f
}

// SortByPriority orders profiles boost, VIP, Premium, then everyone else, keeping input order within a tier.
func SortByPriority(items []model.Profile, now time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return rules.PriorityTier(items[i], now) < rules.PriorityTier(items[j], now)
	})
}

// visibleOnly drops profiles a store returned despite the filter.
func visibleOnly(items []model.Profile) []model.Profile {
	out := items[:0]
	for _, p := range items {
		if p.EligibleForDiscovery() {
			out = append(out, p)
		}
	}
	return out
}

package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	"github.com/babymaxMAX/lsj-love/internal/domain/rules"
	"github.com/babymaxMAX/lsj-love/internal/services/ai"
	"github.com/babymaxMAX/lsj-love/internal/services/candidates"
	"github.com/babymaxMAX/lsj-love/internal/services/geo"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrAIUnavailable = errors.New("ai matchmaking is not configured")
	ErrNotFound      = errors.New("user not found")
	ErrAccessDenied  = errors.New("ai matchmaking trial is over")
)

// RateLimitedError reports how long the caller has to wait.
type RateLimitedError struct {
	RetryAfterSec int64
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("too many matchmaking requests, retry in %ds", e.RetryAfterSec)
}

const (
	keywordMatchLimit = 3

	keywordReply = "ИИ сейчас не смог подобрать анкеты, но вот кто подходит по словам из твоего запроса 👇"
	apologyReply = "К сожалению, сейчас не нашлось подходящих анкет 😔 Попробуй описать запрос иначе или загляни чуть позже."
)

type ProfileStore interface {
	Get(ctx context.Context, telegramID int64) (model.Profile, error)
	StartAIMatchmakingTrial(ctx context.Context, telegramID int64, at time.Time) (bool, error)
}

type CandidateSelector interface {
	SelectWithOptions(ctx context.Context, requesterID int64, excludeIDs []int64, opts candidates.Options) (candidates.Selection, error)
}

type DistanceSorter interface {
	SortByDistance(ctx context.Context, origin string, profiles []model.Profile) []geo.Annotated
}

type Ranker interface {
	Configured() bool
	Screen(ctx context.Context, in ai.ScreenInput) []int64
	Rank(ctx context.Context, in ai.RankInput) ([]int64, string)
}

type LikeLister interface {
	LikedFrom(ctx context.Context, userID int64) ([]int64, error)
}

type RateLimiter interface {
	AllowMatchmaking(ctx context.Context, userID int64) (int64, bool, error)
}

type Config struct {
	PoolSize      int
	VisionCap     int
	FallbackN     int
	TrialDuration time.Duration
}

type Service struct {
	profiles ProfileStore
	selector CandidateSelector
	geo      DistanceSorter
	ranker   Ranker
	likes    LikeLister
	limiter  RateLimiter
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

type Request struct {
	UserID       int64
	Message      string
	Conversation []ai.Turn
	ShownIDs     []int64
}

type Match struct {
	Profile    model.Profile
	DistanceKM *int
}

type Result struct {
	Reply   string
	Matches []Match
	// Source names the step that produced Matches: vision, keywords or none.
	Source string
}

type Status struct {
	Access         bool
	IsVIP          bool
	TrialActive    bool
	TrialHoursLeft int
	TrialExpired   bool
}

func NewService(
	profiles ProfileStore,
	selector CandidateSelector,
	sorter DistanceSorter,
	ranker Ranker,
	likes LikeLister,
	limiter RateLimiter,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 70
	}
	if cfg.VisionCap <= 0 {
		cfg.VisionCap = 10
	}
	if cfg.FallbackN <= 0 {
		cfg.FallbackN = 10
	}
	if cfg.TrialDuration <= 0 {
		cfg.TrialDuration = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		profiles: profiles,
		selector: selector,
		geo:      sorter,
		ranker:   ranker,
		likes:    likes,
		limiter:  limiter,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Find runs the two-stage matchmaking flow. Provider failures degrade to keyword
// matching or an apology and are never returned as errors.
func (s *Service) Find(ctx context.Context, req Request) (Result, error) {
	if req.UserID <= 0 {
		return Result{}, ErrValidation
	}
	if s.ranker == nil || !s.ranker.Configured() {
		return Result{}, ErrAIUnavailable
	}

	requester, err := s.requester(ctx, req.UserID)
	if err != nil {
		return Result{}, err
	}
	if err := s.checkAccess(ctx, requester); err != nil {
		return Result{}, err
	}
	if err := s.checkRate(ctx, req.UserID); err != nil {
		return Result{}, err
	}

	logger := s.logger.With(zap.Int64("user_id", req.UserID))

	exclude, err := s.exclusions(ctx, req)
	if err != nil {
		return Result{}, err
	}

	selection, err := s.selector.SelectWithOptions(ctx, req.UserID, exclude, candidates.Options{Limit: s.cfg.PoolSize})
	if err != nil {
		if errors.Is(err, candidates.ErrNotFound) {
			return Result{}, ErrNotFound
		}
		return Result{}, fmt.Errorf("select candidates: %w", err)
	}

	pool := s.sortByDistance(ctx, requester.City, selection.Profiles)
	if len(pool) == 0 {
		logger.Info("matchmaking pool is empty", zap.String("stage", string(selection.Stage)))
		return Result{Reply: apologyReply, Matches: []Match{}, Source: "none"}, nil
	}

	profiles := make([]model.Profile, len(pool))
	for i, m := range pool {
		profiles[i] = m.Profile
	}

	visual := hasVisualKeywords(req.Message)
	var shortlist []model.Profile
	if visual {
		shortlist = head(profiles, s.cfg.VisionCap)
	} else {
		ids := s.ranker.Screen(ctx, ai.ScreenInput{
			RequesterCity: requester.City,
			Criteria:      req.Message,
			Conversation:  req.Conversation,
			Candidates:    profiles,
			Excluded:      exclude,
		})
		shortlist = pickByIDs(pool, ids)
		if len(shortlist) == 0 {
			shortlist = head(selection.Profiles, s.cfg.FallbackN)
		}
	}

	logger.Info("matchmaking shortlist ready",
		zap.Int("pool", len(pool)),
		zap.Int("shortlist", len(shortlist)),
		zap.Bool("visual", visual),
		zap.String("stage", string(selection.Stage)),
	)

	ids, explanation := s.ranker.Rank(ctx, ai.RankInput{
		Criteria:     req.Message,
		Conversation: req.Conversation,
		Candidates:   shortlist,
		Excluded:     exclude,
	})
	if matches := pickMatches(pool, ids); len(matches) > 0 {
		return Result{Reply: explanation, Matches: matches, Source: "vision"}, nil
	}

	if hits := keywordMatches(profiles, req.Message, keywordMatchLimit); len(hits) > 0 {
		logger.Info("matchmaking fell back to keywords", zap.Int("hits", len(hits)))
		return Result{Reply: keywordReply, Matches: pickMatches(pool, profileIDs(hits)), Source: "keywords"}, nil
	}

	return Result{Reply: apologyReply, Matches: []Match{}, Source: "none"}, nil
}

func (s *Service) Status(ctx context.Context, userID int64) (Status, error) {
	if userID <= 0 {
		return Status{}, ErrValidation
	}
	p, err := s.requester(ctx, userID)
	if err != nil {
		return Status{}, err
	}

	now := s.now()
	isVIP := rules.IsVIPActive(p, now)
	trial := rules.Trial(p.AIMatchmakingFirstUsed, s.cfg.TrialDuration, now)
	return Status{
		Access:         isVIP || trial.Active,
		IsVIP:          isVIP,
		TrialActive:    trial.Active,
		TrialHoursLeft: trial.HoursLeft,
		TrialExpired:   trial.Expired,
	}, nil
}

func (s *Service) requester(ctx context.Context, userID int64) (model.Profile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrProfileNotFound) {
			return model.Profile{}, ErrNotFound
		}
		return model.Profile{}, fmt.Errorf("get requester: %w", err)
	}
	return p, nil
}

// checkAccess lets VIP users through and otherwise starts or checks the free trial.
func (s *Service) checkAccess(ctx context.Context, p model.Profile) error {
	now := s.now()
	if rules.IsVIPActive(p, now) {
		return nil
	}

	trial := rules.Trial(p.AIMatchmakingFirstUsed, s.cfg.TrialDuration, now)
	if !trial.Active {
		return ErrAccessDenied
	}
	if p.AIMatchmakingFirstUsed == nil {
		if _, err := s.profiles.StartAIMatchmakingTrial(ctx, p.TelegramID, now.UTC()); err != nil {
			return fmt.Errorf("start ai matchmaking trial: %w", err)
		}
	}
	return nil
}

func (s *Service) checkRate(ctx context.Context, userID int64) error {
	if s.limiter == nil {
		return nil
	}
	retryAfter, allowed, err := s.limiter.AllowMatchmaking(ctx, userID)
	if err != nil {
		s.logger.Warn("matchmaking rate limiter failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	if !allowed {
		return RateLimitedError{RetryAfterSec: retryAfter}
	}
	return nil
}

func (s *Service) exclusions(ctx context.Context, req Request) ([]int64, error) {
	out := make([]int64, 0, len(req.ShownIDs)+1)
	out = append(out, req.ShownIDs...)
	if s.likes != nil {
		liked, err := s.likes.LikedFrom(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("load liked users: %w", err)
		}
		out = append(out, liked...)
	}
	return append(out, req.UserID), nil
}

func (s *Service) sortByDistance(ctx context.Context, origin string, profiles []model.Profile) []geo.Annotated {
	if s.geo != nil && strings.TrimSpace(origin) != "" {
		return s.geo.SortByDistance(ctx, origin, profiles)
	}
	out := make([]geo.Annotated, len(profiles))
	for i, p := range profiles {
		out[i] = geo.Annotated{Profile: p}
	}
	return out
}

func head(items []model.Profile, n int) []model.Profile {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// pickByIDs returns the pool profiles named by ids in the order of ids.
func pickByIDs(pool []geo.Annotated, ids []int64) []model.Profile {
	matches := pickMatches(pool, ids)
	out := make([]model.Profile, len(matches))
	for i, m := range matches {
		out[i] = m.Profile
	}
	return out
}

func pickMatches(pool []geo.Annotated, ids []int64) []Match {
	byID := make(map[int64]geo.Annotated, len(pool))
	for _, a := range pool {
		byID[a.Profile.TelegramID] = a
	}

	out := make([]Match, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			continue
		}
		delete(byID, id)
		out = append(out, Match{Profile: a.Profile, DistanceKM: a.DistanceKM})
	}
	return out
}

func profileIDs(items []model.Profile) []int64 {
	out := make([]int64, len(items))
	for i, p := range items {
		out[i] = p.TelegramID
	}
	return out
}

package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	"github.com/babymaxMAX/lsj-love/internal/infra/httpclient"
	"github.com/babymaxMAX/lsj-love/internal/infra/llm"
)

const (
	MaxScreenResults   = 10
	MaxRankResults     = 3
	conversationWindow = 8
	rawLogLimit        = 500
)

type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

type PhotoFetcher interface {
	FetchPhoto(ctx context.Context, key string) ([]byte, error)
}

// PhotoLinker turns a stored photo reference into a downloadable URL.
type PhotoLinker interface {
	ResolveRef(ctx context.Context, ref string) (string, error)
}

type Config struct {
	TextTimeout       time.Duration
	VisionTimeout     time.Duration
	PhotoFetchTimeout time.Duration
	PhotoConcurrency  int
}

// Turn is one prior message of the matchmaking chat.
type Turn struct {
	Role    string
	Content string
}

type ScreenInput struct {
	RequesterCity string
	Criteria      string
	Conversation  []Turn
	Candidates    []model.Profile
	Excluded      []int64
}

type RankInput struct {
	Criteria     string
	Conversation []Turn
	Candidates   []model.Profile
	Excluded     []int64
}

type Service struct {
	llm    Completer
	photos PhotoFetcher
	links  PhotoLinker
	client *http.Client
	cfg    Config
	logger *zap.Logger
}

func NewService(completer Completer, photos PhotoFetcher, links PhotoLinker, cfg Config, logger *zap.Logger) *Service {
	if c, ok := completer.(interface{ Configured() bool }); ok && !c.Configured() {
		completer = nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TextTimeout <= 0 {
		cfg.TextTimeout = 30 * time.Second
	}
	if cfg.VisionTimeout <= 0 {
		cfg.VisionTimeout = 60 * time.Second
	}
	if cfg.PhotoFetchTimeout <= 0 {
		cfg.PhotoFetchTimeout = 5 * time.Second
	}
	if cfg.PhotoConcurrency <= 0 {
		cfg.PhotoConcurrency = 4
	}
	return &Service{
		llm:    completer,
		photos: photos,
		links:  links,
		client: httpclient.New(cfg.PhotoFetchTimeout),
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Service) Configured() bool {
	return s != nil && s.llm != nil
}

// Screen narrows candidates to at most MaxScreenResults ids with a text-only model.
// Provider and decode failures are logged and yield an empty result.
func (s *Service) Screen(ctx context.Context, in ScreenInput) []int64 {
	if !s.Configured() || len(in.Candidates) == 0 {
		return []int64{}
	}

	var b strings.Builder
	b.WriteString("Город пользователя: ")
	b.WriteString(orDash(in.RequesterCity))
	b.WriteString("\nЗапрос пользователя: ")
	b.WriteString(strings.TrimSpace(in.Criteria))
	b.WriteString("\nУже показаны (не выбирай): ")
	b.WriteString(formatIDs(in.Excluded))
	b.WriteString("\n\nАнкеты:\n")
	for _, p := range in.Candidates {
		b.WriteString(SummaryLine(p))
		b.WriteByte('\n')
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.TextTimeout)
	defer cancel()

	raw, err := s.llm.Complete(callCtx, llm.Request{
		System:      screenSystemPrompt,
		Messages:    append(conversationMessages(in.Conversation), llm.Message{Role: llm.RoleUser, Text: b.String()}),
		MaxTokens:   300,
		Temperature: 0.2,
	})
	if err != nil {
		s.logger.Warn("ai screen request failed", zap.Error(err))
		return []int64{}
	}

	ids, err := ParseScreen(raw)
	if err != nil {
		s.logFailure(err)
		return []int64{}
	}

	return filterIDs(ids, in.Candidates, in.Excluded, MaxScreenResults)
}

// Rank asks a vision model to pick the final 2-3 candidates and explain the choice.
// On any failure it returns no ids and FallbackExplanation.
func (s *Service) Rank(ctx context.Context, in RankInput) ([]int64, string) {
	if !s.Configured() || len(in.Candidates) == 0 {
		return nil, FallbackExplanation
	}

	photos := s.candidatePhotos(ctx, in.Candidates)

	parts := make([]llm.Part, 0, len(in.Candidates)*2)
	for i, p := range in.Candidates {
		parts = append(parts, llm.Part{Text: SummaryLine(p)})
		if photos[i] != "" {
			parts = append(parts, llm.Part{ImageURL: photos[i]})
		} else {
			parts = append(parts, llm.Part{Text: photoUnavailableMarker})
		}
	}

	intro := "Запрос пользователя: " + strings.TrimSpace(in.Criteria) +
		"\nУже показаны (не выбирай): " + formatIDs(in.Excluded) +
		"\n\nКандидаты:"

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.VisionTimeout)
	defer cancel()

	raw, err := s.llm.Complete(callCtx, llm.Request{
		Vision:      true,
		System:      rankSystemPrompt,
		Messages:    append(conversationMessages(in.Conversation), llm.Message{Role: llm.RoleUser, Text: intro, Parts: parts}),
		MaxTokens:   500,
		Temperature: 0.4,
	})
	if err != nil {
		s.logger.Warn("ai rank request failed", zap.Error(err))
		return nil, FallbackExplanation
	}

	ids, explanation, err := ParseRank(raw)
	if err != nil {
		s.logFailure(err)
		return nil, FallbackExplanation
	}

	ids = filterIDs(ids, in.Candidates, in.Excluded, MaxRankResults)
	if len(ids) == 0 {
		s.logger.Info("ai rank returned no usable ids")
		return nil, FallbackExplanation
	}
	if explanation == "" {
		explanation = defaultRankExplanation
	}
	return ids, explanation
}

func (s *Service) logFailure(err error) {
	var malformedErr *MalformedOutputError
	if errors.As(err, &malformedErr) {
		s.logger.Warn("ai reply did not match schema",
			zap.String("stage", string(malformedErr.Stage)),
			zap.String("raw", truncateRunes(malformedErr.Raw, rawLogLimit)),
			zap.Error(malformedErr.Err),
		)
		return
	}
	s.logger.Warn("ai reply decode failed", zap.Error(err))
}

func conversationMessages(turns []Turn) []llm.Message {
	if len(turns) > conversationWindow {
		turns = turns[len(turns)-conversationWindow:]
	}
	out := make([]llm.Message, 0, len(turns)+1)
	for _, t := range turns {
		text := strings.TrimSpace(t.Content)
		if text == "" {
			continue
		}
		role := llm.RoleUser
		if t.Role == string(llm.RoleAssistant) {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Text: text})
	}
	return out
}

// filterIDs keeps ids that belong to the candidate set and are not excluded, in the given order.
func filterIDs(ids []int64, candidates []model.Profile, excluded []int64, limit int) []int64 {
	allowed := make(map[int64]struct{}, len(candidates))
	for _, p := range candidates {
		allowed[p.TelegramID] = struct{}{}
	}
	for _, id := range excluded {
		delete(allowed, id)
	}

	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := allowed[id]; !ok {
			continue
		}
		delete(allowed, id)
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

func formatIDs(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}

package ai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	"github.com/babymaxMAX/lsj-love/internal/infra/llm"
)

type stubCompleter struct {
	mu       sync.Mutex
	reply    string
	err      error
	block    bool
	requests []llm.Request
}

func (s *stubCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return s.reply, s.err
}

func (s *stubCompleter) lastRequest(t *testing.T) llm.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

type stubPhotos struct {
	data map[string][]byte
}

func (s stubPhotos) FetchPhoto(_ context.Context, key string) ([]byte, error) {
	data, ok := s.data[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

type stubLinker struct {
	mu   sync.Mutex
	base string
	refs []string
}

func (s *stubLinker) ResolveRef(_ context.Context, ref string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs = append(s.refs, ref)
	return s.base + "/" + ref, nil
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func candidateSet(ids ...int64) []model.Profile {
	out := make([]model.Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Profile{TelegramID: id, Name: "Анна", Age: 27, City: "Москва"})
	}
	return out
}

func TestScreenFiltersAndCapsSelection(t *testing.T) {
	completer := &stubCompleter{reply: `{"selected": [3, 99, 2, 3, 1, 4, 5, 6, 7, 8, 9, 10, 11, 12]}`}
	svc := NewService(completer, nil, nil, Config{}, nil)

	got := svc.Screen(context.Background(), ScreenInput{
		RequesterCity: "Москва",
		Criteria:      "рыжая и весёлая",
		Candidates:    candidateSet(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12),
		Excluded:      []int64{1},
	})

	require.Equal(t, []int64{3, 2, 4, 5, 6, 7, 8, 9, 10, 11}, got)

	req := completer.lastRequest(t)
	require.False(t, req.Vision)
	prompt := req.Messages[len(req.Messages)-1].Text
	require.Contains(t, prompt, "рыжая и весёлая")
	require.Contains(t, prompt, "id=12 | Анна, 27 | Москва")
}

func TestScreenReturnsEmptyOnFailures(t *testing.T) {
	tests := []struct {
		name      string
		completer *stubCompleter
	}{
		{name: "provider error", completer: &stubCompleter{err: errors.New("boom")}},
		{name: "malformed reply", completer: &stubCompleter{reply: "sorry, no"}},
		{name: "timeout", completer: &stubCompleter{block: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.completer, nil, nil, Config{TextTimeout: 20 * time.Millisecond}, nil)
			got := svc.Screen(context.Background(), ScreenInput{Candidates: candidateSet(1, 2)})
			require.NotNil(t, got)
			require.Empty(t, got)
		})
	}
}

func TestScreenWithoutProvider(t *testing.T) {
	svc := NewService(nil, nil, nil, Config{}, nil)
	require.False(t, svc.Configured())
	require.Empty(t, svc.Screen(context.Background(), ScreenInput{Candidates: candidateSet(1)}))

	var client *llm.Client
	svc = NewService(client, nil, nil, Config{}, nil)
	require.False(t, svc.Configured())
}

func TestRankBuildsVisionRequest(t *testing.T) {
	completer := &stubCompleter{reply: "Вам обоим нравятся горы.\n{\"matches\": [2, 1]}"}
	photos := stubPhotos{data: map[string][]byte{
		"2_0_photo.png": {0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
	}}
	svc := NewService(completer, photos, nil, Config{}, nil)

	candidates := candidateSet(1, 2, 3)
	candidates[0].Photos = []string{"https://cdn.example.com/1.jpg"}
	candidates[1].Photos = []string{"2_0_photo.png"}
	candidates[2].Photo = "AgACAgIAAxkBAAIB"

	ids, explanation := svc.Rank(context.Background(), RankInput{
		Criteria:   "спортивная",
		Candidates: candidates,
		Conversation: []Turn{
			{Role: "user", Content: "привет"},
			{Role: "assistant", Content: "кого ищешь?"},
		},
	})

	require.Equal(t, []int64{2, 1}, ids)
	require.Equal(t, "Вам обоим нравятся горы.", explanation)

	req := completer.lastRequest(t)
	require.True(t, req.Vision)
	require.Len(t, req.Messages, 3)
	require.Equal(t, llm.RoleAssistant, req.Messages[1].Role)

	parts := req.Messages[2].Parts
	require.Len(t, parts, 6)
	require.Equal(t, "https://cdn.example.com/1.jpg", parts[1].ImageURL)
	require.True(t, strings.HasPrefix(parts[3].ImageURL, "data:image/png;base64,"))
	require.Equal(t, photoUnavailableMarker, parts[5].Text)
}

func TestRankKeepsOrderAndDropsUnknownIDs(t *testing.T) {
	completer := &stubCompleter{reply: `{"matches": [42, 3, 1, 2, 3]}`}
	svc := NewService(completer, nil, nil, Config{}, nil)

	ids, explanation := svc.Rank(context.Background(), RankInput{
		Candidates: candidateSet(1, 2, 3, 4),
		Excluded:   []int64{2},
	})

	require.Equal(t, []int64{3, 1}, ids)
	require.Equal(t, defaultRankExplanation, explanation)
}

func TestRankFallsBackOnFailure(t *testing.T) {
	for _, completer := range []*stubCompleter{
		{err: errors.New("rate limited")},
		{reply: "I could not decide"},
		{reply: `{"matches": [77]}`},
	} {
		svc := NewService(completer, nil, nil, Config{}, nil)
		ids, explanation := svc.Rank(context.Background(), RankInput{Candidates: candidateSet(1, 2)})
		require.Empty(t, ids)
		require.Equal(t, FallbackExplanation, explanation)
	}
}

func TestConversationMessagesKeepsLastTurns(t *testing.T) {
	turns := make([]Turn, 0, 12)
	for i := 0; i < 12; i++ {
		turns = append(turns, Turn{Role: "user", Content: string(rune('a' + i))})
	}
	turns[11].Content = "   "

	got := conversationMessages(turns)
	require.Len(t, got, conversationWindow-1)
	require.Equal(t, "e", got[0].Text)
}

func TestRankSkipsVideoPrimarySlot(t *testing.T) {
	completer := &stubCompleter{reply: `{"matches": [1]}`}
	photos := stubPhotos{data: map[string][]byte{
		"1_0.mp4": {0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2'},
		"2_0.bin": {0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2'},
	}}
	svc := NewService(completer, photos, nil, Config{}, nil)

	candidates := candidateSet(1, 2)
	candidates[0].Photos = []string{"1_0.mp4"}
	candidates[1].Photos = []string{"2_0.bin"}

	ids, _ := svc.Rank(context.Background(), RankInput{Criteria: "любая", Candidates: candidates})
	require.Equal(t, []int64{1}, ids)

	parts := completer.lastRequest(t).Messages[0].Parts
	require.Len(t, parts, 4)
	require.Empty(t, parts[1].ImageURL)
	require.Equal(t, photoUnavailableMarker, parts[1].Text)
	require.Empty(t, parts[3].ImageURL)
	require.Equal(t, photoUnavailableMarker, parts[3].Text)
}

func TestRankFallsBackToResolvedPhotoURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(pngHeader)
	}))
	defer server.Close()

	completer := &stubCompleter{reply: `{"matches": [1, 2]}`}
	linker := &stubLinker{base: server.URL}
	svc := NewService(completer, stubPhotos{}, linker, Config{}, nil)

	candidates := candidateSet(1, 2, 3)
	candidates[0].Photo = "AgACAgIAAxkBAAIB"
	candidates[1].Photos = []string{"2_0.png"}
	candidates[2].Photos = []string{"missing.png"}

	ids, _ := svc.Rank(context.Background(), RankInput{Criteria: "любая", Candidates: candidates})
	require.Equal(t, []int64{1, 2}, ids)

	parts := completer.lastRequest(t).Messages[0].Parts
	require.Len(t, parts, 6)
	require.True(t, strings.HasPrefix(parts[1].ImageURL, "data:image/png;base64,"))
	require.True(t, strings.HasPrefix(parts[3].ImageURL, "data:image/png;base64,"))
	require.NotContains(t, parts[1].ImageURL, server.URL)
	require.Equal(t, photoUnavailableMarker, parts[5].Text)
	require.ElementsMatch(t, []string{"AgACAgIAAxkBAAIB", "2_0.png", "missing.png"}, linker.refs)
}

package likes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

type fakeProfiles struct {
	items map[int64]model.Profile
}

func (f *fakeProfiles) Get(_ context.Context, id int64) (model.Profile, error) {
	p, ok := f.items[id]
	if !ok {
		return model.Profile{}, model.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfiles) ConsumeSuperlike(_ context.Context, id int64) (bool, error) {
	p := f.items[id]
	if p.SuperlikeCredits <= 0 {
		return false, nil
	}
	p.SuperlikeCredits--
	f.items[id] = p
	return true, nil
}

type likeKey struct{ from, to int64 }

type fakeLikes struct {
	items map[likeKey]time.Time
}

func newFakeLikes() *fakeLikes {
	return &fakeLikes{items: map[likeKey]time.Time{}}
}

func (f *fakeLikes) Create(_ context.Context, from, to int64, at time.Time) (model.Like, bool, error) {
	k := likeKey{from, to}
	if existing, ok := f.items[k]; ok {
		return model.Like{FromUser: from, ToUser: to, CreatedAt: existing}, false, nil
	}
	f.items[k] = at
	return model.Like{FromUser: from, ToUser: to, CreatedAt: at}, true, nil
}

func (f *fakeLikes) Delete(_ context.Context, from, to int64) (bool, error) {
	k := likeKey{from, to}
	_, ok := f.items[k]
	delete(f.items, k)
	return ok, nil
}

func (f *fakeLikes) Exists(_ context.Context, from, to int64) (bool, error) {
	_, ok := f.items[likeKey{from, to}]
	return ok, nil
}

func (f *fakeLikes) LikedFrom(_ context.Context, userID int64) ([]int64, error) {
	out := []int64{}
	for k := range f.items {
		if k.from == userID {
			out = append(out, k.to)
		}
	}
	return out, nil
}

func (f *fakeLikes) LikedBy(_ context.Context, userID int64) ([]int64, error) {
	out := []int64{}
	for k := range f.items {
		if k.to == userID {
			out = append(out, k.from)
		}
	}
	return out, nil
}

func (f *fakeLikes) CountSince(_ context.Context, from int64, since time.Time) (int, error) {
	n := 0
	for k, at := range f.items {
		if k.from == from && !at.Before(since) {
			n++
		}
	}
	return n, nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	liked      []int64
	superliked []int64
	matched    []int64
}

func (f *fakeNotifier) Liked(_ context.Context, to int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.liked = append(f.liked, to)
	return nil
}

func (f *fakeNotifier) Superliked(_ context.Context, to int64, _ model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.superliked = append(f.superliked, to)
	return nil
}

func (f *fakeNotifier) Matched(_ context.Context, to int64, _ model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.matched = append(f.matched, to)
	return nil
}

func newTestService(profiles ...model.Profile) (*Service, *fakeLikes, *fakeNotifier, *fakeProfiles) {
	store := &fakeProfiles{items: map[int64]model.Profile{}}
	for _, p := range profiles {
		store.items[p.TelegramID] = p
	}
	likes := newFakeLikes()
	notifier := &fakeNotifier{}
	svc := NewService(store, likes, notifier, nil, Config{FreeLikesPerDay: 2}, nil)
	svc.now = func() time.Time { return time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC) }
	return svc, likes, notifier, store
}

func TestCreateLikeNotifiesAndDetectsMatch(t *testing.T) {
	svc, _, notifier, _ := newTestService(model.Profile{TelegramID: 1}, model.Profile{TelegramID: 2})

	first, err := svc.Create(context.Background(), CreateInput{FromUser: 1, ToUser: 2})
	if err != nil {
		t.Fatalf("create like: %v", err)
	}
	if first.IsMatch || !first.Created {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if first.LikesLeft != 1 {
		t.Fatalf("unexpected likes left: got %d want 1", first.LikesLeft)
	}

	second, err := svc.Create(context.Background(), CreateInput{FromUser: 2, ToUser: 1})
	if err != nil {
		t.Fatalf("create reverse like: %v", err)
	}
	if !second.IsMatch {
		t.Fatalf("expected match on reverse like")
	}

	svc.Wait()
	if len(notifier.liked) != 1 || notifier.liked[0] != 2 {
		t.Fatalf("unexpected liked notifications: %v", notifier.liked)
	}
	if len(notifier.matched) != 2 {
		t.Fatalf("expected match notification for both sides, got %v", notifier.matched)
	}
}

func TestCreateLikeIsIdempotent(t *testing.T) {
	svc, likes, notifier, _ := newTestService(model.Profile{TelegramID: 1}, model.Profile{TelegramID: 2})

	for i := 0; i < 2; i++ {
		if _, err := svc.Create(context.Background(), CreateInput{FromUser: 1, ToUser: 2}); err != nil {
			t.Fatalf("create like #%d: %v", i+1, err)
		}
	}
	svc.Wait()

	if len(likes.items) != 1 {
		t.Fatalf("unexpected like count: got %d want 1", len(likes.items))
	}
	if len(notifier.liked) != 1 {
		t.Fatalf("duplicate like must not notify again, got %d", len(notifier.liked))
	}
}

func TestCreateLikeDailyLimitForFreeUsers(t *testing.T) {
	svc, _, _, _ := newTestService(
		model.Profile{TelegramID: 1},
		model.Profile{TelegramID: 2},
		model.Profile{TelegramID: 3},
		model.Profile{TelegramID: 4},
	)

	for _, to := range []int64{2, 3} {
		if _, err := svc.Create(context.Background(), CreateInput{FromUser: 1, ToUser: to}); err != nil {
			t.Fatalf("create like to %d: %v", to, err)
		}
	}

	_, err := svc.Create(context.Background(), CreateInput{FromUser: 1, ToUser: 4})
	if !errors.Is(err, ErrDailyLimit) {
		t.Fatalf("expected ErrDailyLimit, got %v", err)
	}
	var limitErr DailyLimitError
	if !errors.As(err, &limitErr) || limitErr.Limit != 2 {
		t.Fatalf("expected limit 2 in error, got %v", err)
	}
}

func TestCreateLikePremiumIsUncapped(t *testing.T) {
	until := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc, _, _, _ := newTestService(
		model.Profile{TelegramID: 1, PremiumType: enums.PremiumPremium, PremiumUntil: &until},
		model.Profile{TelegramID: 2},
		model.Profile{TelegramID: 3},
		model.Profile{TelegramID: 4},
	)

	for _, to := range []int64{2, 3, 4} {
		res, err := svc.Create(context.Background(), CreateInput{FromUser: 1, ToUser: to})
		if err != nil {
			t.Fatalf("create like to %d: %v", to, err)
		}
		if res.LikesLeft != -1 {
			t.Fatalf("premium likes must be uncapped, got %d", res.LikesLeft)
		}
	}
}

func TestCreateSuperlikeConsumesCredit(t *testing.T) {
	svc, _, notifier, profiles := newTestService(
		model.Profile{TelegramID: 1, SuperlikeCredits: 1},
		model.Profile{TelegramID: 2},
		model.Profile{TelegramID: 3},
	)

	if _, err := svc.Create(context.Background(), CreateInput{FromUser: 1, ToUser: 2, Superlike: true}); err != nil {
		t.Fatalf("create superlike: %v", err)
	}
	svc.Wait()

	if profiles.items[1].SuperlikeCredits != 0 {
		t.Fatalf("expected credit to be consumed, left %d", profiles.items[1].SuperlikeCredits)
	}
	if len(notifier.superliked) != 1 || notifier.superliked[0] != 2 {
		t.Fatalf("unexpected superlike notifications: %v", notifier.superliked)
	}

	_, err := svc.Create(context.Background(), CreateInput{FromUser: 1, ToUser: 3, Superlike: true})
	if !errors.Is(err, ErrNoSuperlikes) {
		t.Fatalf("expected ErrNoSuperlikes, got %v", err)
	}
}

func TestCreateLikeValidation(t *testing.T) {
	svc, _, _, _ := newTestService(model.Profile{TelegramID: 1})

	if _, err := svc.Create(context.Background(), CreateInput{FromUser: 1, ToUser: 1}); !errors.Is(err, ErrValidation) {
		t.Fatalf("self like must be rejected, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateInput{FromUser: 1, ToUser: 9}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing target, got %v", err)
	}
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string, int64) (int64, bool, error) {
	return 7, false, nil
}

func TestCreateLikeTooFast(t *testing.T) {
	svc, _, _, _ := newTestService(model.Profile{TelegramID: 1}, model.Profile{TelegramID: 2})
	svc.limiter = denyLimiter{}

	_, err := svc.Create(context.Background(), CreateInput{FromUser: 1, ToUser: 2})
	tooFast, ok := IsTooFast(err)
	if !ok {
		t.Fatalf("expected TooFastError, got %v", err)
	}
	if tooFast.RetryAfter() != 7 {
		t.Fatalf("unexpected retry after: %d", tooFast.RetryAfter())
	}
}

func TestDeleteAndIsMatch(t *testing.T) {
	svc, _, _, _ := newTestService(model.Profile{TelegramID: 1}, model.Profile{TelegramID: 2})
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{FromUser: 1, ToUser: 2}); err != nil {
		t.Fatalf("create like: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{FromUser: 2, ToUser: 1}); err != nil {
		t.Fatalf("create reverse like: %v", err)
	}
	svc.Wait()

	match, err := svc.IsMatch(ctx, 1, 2)
	if err != nil || !match {
		t.Fatalf("expected match, got %v err=%v", match, err)
	}

	if err := svc.Delete(ctx, 1, 2); err != nil {
		t.Fatalf("delete like: %v", err)
	}
	if err := svc.Delete(ctx, 1, 2); !errors.Is(err, model.ErrLikeNotFound) {
		t.Fatalf("expected ErrLikeNotFound on second delete, got %v", err)
	}
	if match, _ := svc.IsMatch(ctx, 1, 2); match {
		t.Fatalf("match must disappear after delete")
	}
}

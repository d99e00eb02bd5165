package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
	"github.com/babymaxMAX/lsj-love/internal/domain/rules"
)

type memoryStore struct {
	profiles []model.Profile
	boostErr error
	cutoff   time.Time
}

func (m *memoryStore) ClearExpiredPremium(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for i := range m.profiles {
		p := &m.profiles[i]
		if p.PremiumUntil != nil && !p.PremiumUntil.After(now) {
			p.PremiumType = enums.PremiumNone
			p.PremiumUntil = nil
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) ClearExpiredBoosts(_ context.Context, now time.Time) (int64, error) {
	if m.boostErr != nil {
		return 0, m.boostErr
	}
	var n int64
	for i := range m.profiles {
		p := &m.profiles[i]
		if p.BoostUntil != nil && !p.BoostUntil.After(now) {
			p.BoostUntil = nil
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) ResetBoostWeeks(_ context.Context, cutoff time.Time) (int64, error) {
	m.cutoff = cutoff
	var n int64
	for i := range m.profiles {
		p := &m.profiles[i]
		if p.BoostsThisWeek > 0 && (p.BoostWeekReset == nil || !p.BoostWeekReset.After(cutoff)) {
			p.BoostsThisWeek = 0
			p.BoostWeekReset = nil
			n++
		}
	}
	return n, nil
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

func TestRunClearsOnlyExpiredFields(t *testing.T) {
	now := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)

	store := &memoryStore{profiles: []model.Profile{
		{TelegramID: 1, PremiumType: enums.PremiumVIP, PremiumUntil: ptrTime(now.Add(-time.Minute))},
		{TelegramID: 2, PremiumType: enums.PremiumPremium, PremiumUntil: ptrTime(now.Add(time.Hour)), BoostUntil: ptrTime(now.Add(-time.Hour))},
		{TelegramID: 3, BoostsThisWeek: 3, BoostWeekReset: ptrTime(now.Add(-8 * 24 * time.Hour))},
		{TelegramID: 4, BoostsThisWeek: 1, BoostWeekReset: ptrTime(now.Add(-2 * 24 * time.Hour))},
	}}

	job := New(store, time.Hour, nil)
	job.now = func() time.Time { return now }

	report, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("run sweeper: %v", err)
	}
	if report != (Report{PremiumCleared: 1, BoostsCleared: 1, WeeksReset: 1}) {
		t.Fatalf("unexpected report: %+v", report)
	}

	if store.profiles[0].PremiumType != enums.PremiumNone {
		t.Fatalf("expired vip should be cleared, got %s", store.profiles[0].PremiumType)
	}
	if !rules.IsPremiumActive(store.profiles[1], now) {
		t.Fatalf("active premium must stay")
	}
	if store.profiles[3].BoostsThisWeek != 1 {
		t.Fatalf("recent boost week must stay, got %d", store.profiles[3].BoostsThisWeek)
	}
	if !store.cutoff.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Fatalf("unexpected boost week cutoff: %s", store.cutoff)
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	now := time.Date(2026, time.February, 10, 12, 0, 0, 0, time.UTC)
	store := &memoryStore{
		boostErr: errors.New("boom"),
		profiles: []model.Profile{
			{TelegramID: 1, PremiumType: enums.PremiumVIP, PremiumUntil: ptrTime(now.Add(-time.Minute))},
			{TelegramID: 2, BoostsThisWeek: 2},
		},
	}

	job := New(store, time.Hour, nil)
	job.now = func() time.Time { return now }

	report, err := job.Run(context.Background())
	if err == nil {
		t.Fatalf("expected boost error")
	}
	if report.PremiumCleared != 1 || report.WeeksReset != 1 {
		t.Fatalf("other steps must still run: %+v", report)
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	store := &memoryStore{}
	job := New(store, time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Loop(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not stop after cancel")
	}
}

package handlers

import (
	"testing"
	"time"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

func TestProjectorRewritesPhotoReferences(t *testing.T) {
	p := NewProjector("/api/v1/")

	got := p.Profile(model.Profile{
		TelegramID: 42,
		Name:       "Аня",
		Photo:      "42_0.jpg",
		Photos:     []string{"42_0.jpg", "42_1.MP4", "42_2.webp"},
	})

	if got.Photo == nil || *got.Photo != "/api/v1/users/42/photo" {
		t.Fatalf("unexpected primary photo: %v", got.Photo)
	}
	wantPhotos := []string{"/api/v1/users/42/photo/0", "/api/v1/users/42/photo/1", "/api/v1/users/42/photo/2"}
	wantKinds := []string{"image", "video", "image"}
	for i := range wantPhotos {
		if got.Photos[i] != wantPhotos[i] {
			t.Fatalf("unexpected photo %d: got %q want %q", i, got.Photos[i], wantPhotos[i])
		}
		if got.MediaTypes[i] != wantKinds[i] {
			t.Fatalf("unexpected media type %d: got %q want %q", i, got.MediaTypes[i], wantKinds[i])
		}
	}
}

func TestProjectorLegacyPhotoOnly(t *testing.T) {
	p := NewProjector("/api/v1")

	telegram := p.Profile(model.Profile{TelegramID: 7, Photo: "AgACAgIAAxkBAAIBZ2Vfile"})
	if len(telegram.Photos) != 1 || telegram.Photos[0] != "/api/v1/users/7/photo" {
		t.Fatalf("unexpected photos for legacy file id: %v", telegram.Photos)
	}

	external := p.Profile(model.Profile{TelegramID: 8, Photo: "https://cdn.example.com/a.jpg"})
	if external.Photo == nil || *external.Photo != "https://cdn.example.com/a.jpg" {
		t.Fatalf("http photo must stay as is: %v", external.Photo)
	}

	none := p.Profile(model.Profile{TelegramID: 9})
	if none.Photo != nil || len(none.Photos) != 0 || none.Photos == nil {
		t.Fatalf("profile without photo must have null photo and empty list: %+v", none)
	}
}

func TestProjectorPremiumTypeOnlyWhenActive(t *testing.T) {
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	p := NewProjector("/api/v1")
	p.now = func() time.Time { return now }

	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	active := p.Profile(model.Profile{TelegramID: 1, PremiumType: enums.PremiumVIP, PremiumUntil: &future})
	if active.PremiumType == nil || *active.PremiumType != "vip" {
		t.Fatalf("expected active vip, got %v", active.PremiumType)
	}

	expired := p.Profile(model.Profile{TelegramID: 2, PremiumType: enums.PremiumPremium, PremiumUntil: &past})
	if expired.PremiumType != nil {
		t.Fatalf("expired premium must be hidden, got %v", *expired.PremiumType)
	}
}

func TestProjectorOptionalFields(t *testing.T) {
	seen := time.Date(2026, time.March, 1, 15, 4, 5, 0, time.FixedZone("MSK", 3*3600))
	got := NewProjector("/api/v1").Profile(model.Profile{
		TelegramID: 5,
		Name:       "Оля",
		Age:        0,
		City:       "",
		LastSeen:   &seen,
	})

	if got.Age != nil || got.City != nil || got.Gender != nil {
		t.Fatalf("unknown fields must be null: %+v", got)
	}
	if got.LastSeen == nil || *got.LastSeen != "2026-03-01T12:04:05Z" {
		t.Fatalf("last_seen must be UTC RFC3339, got %v", got.LastSeen)
	}
}

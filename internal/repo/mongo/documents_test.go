package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

func TestProfileDocumentDecodesLegacyFields(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"telegram_id":       int64(42),
		"name":              "Аня",
		"gender":            "Женский",
		"age":               "27",
		"city":              "Москва",
		"superlike_credits": int32(2),
		"premium_type":      "vip",
		"is_active":         true,
	})
	if err != nil {
		t.Fatalf("marshal legacy document: %v", err)
	}

	var doc profileDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode legacy document: %v", err)
	}
	p := profileFromDocument(doc)

	if p.Age != 27 {
		t.Fatalf("unexpected age: got %d want 27", p.Age)
	}
	if p.Gender != enums.GenderFemale {
		t.Fatalf("unexpected gender: %s", p.Gender)
	}
	if p.PremiumType != enums.PremiumVIP {
		t.Fatalf("unexpected premium type: %s", p.PremiumType)
	}
	if p.SuperlikeCredits != 2 {
		t.Fatalf("unexpected superlike credits: %d", p.SuperlikeCredits)
	}
	if p.Photos == nil || p.ProfileAnswers == nil {
		t.Fatalf("missing collections must decode as empty values")
	}
}

func TestLooseIntRejectsGarbage(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"age": "twenty"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc profileDocument
	if err := bson.Unmarshal(raw, &doc); err == nil {
		t.Fatalf("expected decode error for non-numeric age")
	}
}

func TestDocumentRoundTripKeepsExpiryInstants(t *testing.T) {
	until := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := model.Profile{
		TelegramID:   1,
		Gender:       enums.GenderMan,
		Age:          30,
		PremiumType:  enums.PremiumPremium,
		PremiumUntil: &until,
		Photos:       []string{"1_0.png"},
		Photo:        "1_0.png",
		CreatedAt:    until,
	}

	raw, err := bson.Marshal(documentFromProfile(p))
	if err != nil {
		t.Fatalf("marshal profile: %v", err)
	}
	var doc profileDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal profile: %v", err)
	}
	got := profileFromDocument(doc)

	if got.PremiumUntil == nil || !got.PremiumUntil.Equal(until) {
		t.Fatalf("unexpected premium until: %v", got.PremiumUntil)
	}
	if got.Age != 30 || got.Gender != enums.GenderMan {
		t.Fatalf("unexpected demographics: %d %s", got.Age, got.Gender)
	}
}

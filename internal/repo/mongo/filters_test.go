package mongo

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

func TestCandidateQueryAlwaysRequiresVisibleActiveProfiles(t *testing.T) {
	query := candidateQuery(model.CandidateFilter{})

	if query["is_active"] != true {
		t.Fatalf("is_active must be required, got %v", query["is_active"])
	}
	hidden, ok := query["profile_hidden"].(bson.M)
	if !ok || hidden["$ne"] != true {
		t.Fatalf("profile_hidden must be excluded, got %v", query["profile_hidden"])
	}
	if _, ok := query["$expr"]; ok {
		t.Fatalf("zero age bounds must not add an age expression")
	}
	if _, ok := query["gender"]; ok {
		t.Fatalf("unknown gender must not add a gender filter")
	}
	if _, ok := query["city"]; ok {
		t.Fatalf("no cities must not add a city filter")
	}
	nin := query["telegram_id"].(bson.M)["$nin"].([]int64)
	if nin == nil {
		t.Fatalf("exclusion list must be a non-nil array")
	}
}

func TestCandidateQueryAppliesAllFilters(t *testing.T) {
	query := candidateQuery(model.CandidateFilter{
		ExcludeIDs: []int64{7, 9},
		MinAge:     25,
		MaxAge:     35,
		Gender:     enums.GenderFemale,
		Cities:     []string{"Дмитров", "Дубна"},
	})

	if got := query["telegram_id"].(bson.M)["$nin"].([]int64); len(got) != 2 || got[0] != 7 {
		t.Fatalf("unexpected exclusions: %v", got)
	}

	bounds := query["$expr"].(bson.M)["$and"].(bson.A)
	if len(bounds) != 2 {
		t.Fatalf("unexpected age bounds count: got %d want 2", len(bounds))
	}

	genders := query["gender"].(bson.M)["$in"].([]string)
	for _, label := range []string{"Женский", "женский", "девушка", "Женщина"} {
		found := false
		for _, g := range genders {
			if g == label {
				found = true
			}
		}
		if !found {
			t.Fatalf("legacy gender label %q must be matched, got %v", label, genders)
		}
	}

	cities := query["city"].(bson.M)["$in"].([]string)
	if len(cities) != 2 {
		t.Fatalf("unexpected cities: %v", cities)
	}
}

func TestCandidateQueryUsesExactMatchForSingleCity(t *testing.T) {
	query := candidateQuery(model.CandidateFilter{Cities: []string{"Москва"}})
	if query["city"] != "Москва" {
		t.Fatalf("single city must be an exact match, got %v", query["city"])
	}
}

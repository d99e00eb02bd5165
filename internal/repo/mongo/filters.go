package mongo

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

// candidateQuery translates a discovery filter into a users collection query.
// Ages are compared through $convert because legacy documents keep them as strings.
func candidateQuery(f model.CandidateFilter) bson.M {
	exclude := f.ExcludeIDs
	if exclude == nil {
		exclude = []int64{}
	}

	query := bson.M{
		"telegram_id":    bson.M{"$nin": exclude},
		"is_active":      true,
		"profile_hidden": bson.M{"$ne": true},
	}

	ageBounds := bson.A{}
	ageExpr := bson.M{"$convert": bson.M{"input": "$age", "to": "int", "onError": 0, "onNull": 0}}
	if f.MinAge > 0 {
		ageBounds = append(ageBounds, bson.M{"$gte": bson.A{ageExpr, f.MinAge}})
	}
	if f.MaxAge > 0 {
		ageBounds = append(ageBounds, bson.M{"$lte": bson.A{ageExpr, f.MaxAge}})
	}
	if len(ageBounds) > 0 {
		query["$expr"] = bson.M{"$and": ageBounds}
	}

	if aliases := f.Gender.Aliases(); len(aliases) > 0 {
		query["gender"] = bson.M{"$in": aliases}
	}

	if f.HasCityFilter() {
		if len(f.Cities) == 1 {
			query["city"] = f.Cities[0]
		} else {
			query["city"] = bson.M{"$in": f.Cities}
		}
	}
	return query
}

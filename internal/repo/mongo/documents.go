package mongo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

// looseInt decodes ages and counters that older bot versions stored as strings or doubles.
type looseInt int

func (i *looseInt) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Int32:
		*i = looseInt(raw.Int32())
	case bsontype.Int64:
		*i = looseInt(raw.Int64())
	case bsontype.Double:
		*i = looseInt(raw.Double())
	case bsontype.String:
		s := strings.TrimSpace(raw.StringValue())
		if s == "" {
			*i = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("decode integer from %q: %w", s, err)
		}
		*i = looseInt(v)
	case bsontype.Null, bsontype.Undefined:
		*i = 0
	default:
		return fmt.Errorf("cannot decode %s into integer", t)
	}
	return nil
}

type profileDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	TelegramID int64              `bson:"telegram_id"`
	Username   string             `bson:"username"`
	Name       string             `bson:"name"`

	Gender     string   `bson:"gender"`
	Age        looseInt `bson:"age"`
	City       string   `bson:"city"`
	LookingFor string   `bson:"looking_for"`
	About      string   `bson:"about"`

	Photo  string   `bson:"photo"`
	Photos []string `bson:"photos"`

	IsActive      bool `bson:"is_active"`
	ProfileHidden bool `bson:"profile_hidden"`

	PremiumType      string     `bson:"premium_type"`
	PremiumUntil     *time.Time `bson:"premium_until"`
	SuperlikeCredits looseInt   `bson:"superlike_credits"`
	BoostUntil       *time.Time `bson:"boost_until"`
	BoostsThisWeek   looseInt   `bson:"boosts_this_week"`
	BoostWeekReset   *time.Time `bson:"boost_week_reset"`

	ReferredBy      *int64 `bson:"referred_by"`
	ReferralBalance int64  `bson:"referral_balance"`

	IcebreakerUsed         looseInt   `bson:"icebreaker_used"`
	AIMatchmakingFirstUsed *time.Time `bson:"ai_matchmaking_first_used"`
	LastSeen               *time.Time `bson:"last_seen"`
	CreatedAt              time.Time  `bson:"created_at"`

	ProfileAnswers map[string]string `bson:"profile_answers"`
}

func profileFromDocument(doc profileDocument) model.Profile {
	p := model.Profile{
		TelegramID:             doc.TelegramID,
		Username:               doc.Username,
		Name:                   doc.Name,
		Gender:                 enums.ParseGender(doc.Gender),
		Age:                    int(doc.Age),
		City:                   doc.City,
		LookingFor:             enums.ParseGender(doc.LookingFor),
		About:                  doc.About,
		Photo:                  doc.Photo,
		Photos:                 doc.Photos,
		IsActive:               doc.IsActive,
		ProfileHidden:          doc.ProfileHidden,
		PremiumType:            enums.ParsePremiumType(doc.PremiumType),
		PremiumUntil:           utcPtr(doc.PremiumUntil),
		SuperlikeCredits:       int(doc.SuperlikeCredits),
		BoostUntil:             utcPtr(doc.BoostUntil),
		BoostsThisWeek:         int(doc.BoostsThisWeek),
		BoostWeekReset:         utcPtr(doc.BoostWeekReset),
		ReferredBy:             doc.ReferredBy,
		ReferralBalance:        doc.ReferralBalance,
		IcebreakerUsed:         int(doc.IcebreakerUsed),
		AIMatchmakingFirstUsed: utcPtr(doc.AIMatchmakingFirstUsed),
		LastSeen:               utcPtr(doc.LastSeen),
		CreatedAt:              doc.CreatedAt.UTC(),
		ProfileAnswers:         doc.ProfileAnswers,
	}
	if p.Photos == nil {
		p.Photos = []string{}
	}
	if p.ProfileAnswers == nil {
		p.ProfileAnswers = map[string]string{}
	}
	return p
}

func documentFromProfile(p model.Profile) profileDocument {
	photos := p.Photos
	if photos == nil {
		photos = []string{}
	}
	answers := p.ProfileAnswers
	if answers == nil {
		answers = map[string]string{}
	}
	return profileDocument{
		TelegramID:             p.TelegramID,
		Username:               p.Username,
		Name:                   p.Name,
		Gender:                 string(p.Gender),
		Age:                    looseInt(p.Age),
		City:                   p.City,
		LookingFor:             string(p.LookingFor),
		About:                  p.About,
		Photo:                  p.Photo,
		Photos:                 photos,
		IsActive:               p.IsActive,
		ProfileHidden:          p.ProfileHidden,
		PremiumType:            string(p.PremiumType),
		PremiumUntil:           p.PremiumUntil,
		SuperlikeCredits:       looseInt(p.SuperlikeCredits),
		BoostUntil:             p.BoostUntil,
		BoostsThisWeek:         looseInt(p.BoostsThisWeek),
		BoostWeekReset:         p.BoostWeekReset,
		ReferredBy:             p.ReferredBy,
		ReferralBalance:        p.ReferralBalance,
		IcebreakerUsed:         looseInt(p.IcebreakerUsed),
		AIMatchmakingFirstUsed: p.AIMatchmakingFirstUsed,
		LastSeen:               p.LastSeen,
		CreatedAt:              p.CreatedAt,
		ProfileAnswers:         answers,
	}
}

type likeDocument struct {
	FromUser  int64     `bson:"from_user"`
	ToUser    int64     `bson:"to_user"`
	CreatedAt time.Time `bson:"created_at"`
}

type photoLikeDocument struct {
	OwnerID    int64     `bson:"owner_id"`
	PhotoIndex int       `bson:"photo_index"`
	FromUser   int64     `bson:"from_user"`
	CreatedAt  time.Time `bson:"created_at"`
}

type photoCommentDocument struct {
	ID         string    `bson:"id"`
	OwnerID    int64     `bson:"owner_id"`
	PhotoIndex int       `bson:"photo_index"`
	FromUser   int64     `bson:"from_user"`
	FromName   string    `bson:"from_name"`
	Text       string    `bson:"text"`
	CreatedAt  time.Time `bson:"created_at"`
}

type cityDocument struct {
	City      string    `bson:"city"`
	Lat       float64   `bson:"lat"`
	Lon       float64   `bson:"lon"`
	CreatedAt time.Time `bson:"created_at"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/babymaxMAX/lsj-love/internal/domain/enums"
	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

const profileColumns = `
	telegram_id,
	username,
	name,
	gender,
	age,
	city,
	looking_for,
	about,
	photo,
	photos,
	is_active,
	profile_hidden,
	premium_type,
	premium_until,
	superlike_credits,
	boost_until,
	boosts_this_week,
	boost_week_reset,
	referred_by,
	referral_balance,
	icebreaker_used,
	ai_matchmaking_first_used,
	last_seen,
	profile_answers,
	created_at`

var errNilPool = errors.New("postgres pool is nil")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Get(ctx context.Context, telegramID int64) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, errNilPool
	}

	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE telegram_id = $1`, telegramID)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Profile{}, model.ErrProfileNotFound
		}
		return model.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepo) GetMany(ctx context.Context, ids []int64) ([]model.Profile, error) {
	if len(ids) == 0 {
		return []model.Profile{}, nil
	}
	if r.pool == nil {
		return nil, errNilPool
	}

	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM profiles WHERE telegram_id = ANY($1::bigint[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("get profiles by ids: %w", err)
	}
	return collectProfiles(rows)
}

func (r *ProfileRepo) List(ctx context.Context, page model.Page) ([]model.Profile, int64, error) {
	if r.pool == nil {
		return nil, 0, errNilPool
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count profiles: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+profileColumns+`
FROM profiles
ORDER BY created_at, telegram_id
LIMIT $1 OFFSET $2
`, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list profiles: %w", err)
	}
	items, err := collectProfiles(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ProfileRepo) Create(ctx context.Context, p model.Profile) error {
	if r.pool == nil {
		return errNilPool
	}
	if p.TelegramID == 0 {
		return fmt.Errorf("telegram id is required")
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Photos == nil {
		p.Photos = []string{}
	}
	if p.ProfileAnswers == nil {
		p.ProfileAnswers = map[string]string{}
	}

	_, err := r.pool.Exec(ctx, `
INSERT INTO profiles (`+profileColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
`,
		p.TelegramID,
		p.Username,
		p.Name,
		string(p.Gender),
		p.Age,
		p.City,
		string(p.LookingFor),
		p.About,
		p.Photo,
		p.Photos,
		p.IsActive,
		p.ProfileHidden,
		string(p.PremiumType),
		p.PremiumUntil,
		p.SuperlikeCredits,
		p.BoostUntil,
		p.BoostsThisWeek,
		p.BoostWeekReset,
		p.ReferredBy,
		p.ReferralBalance,
		p.IcebreakerUsed,
		p.AIMatchmakingFirstUsed,
		p.LastSeen,
		p.ProfileAnswers,
		p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.ErrProfileExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// ListCandidates returns active, visible profiles matching f in insertion order.
func (r *ProfileRepo) ListCandidates(ctx context.Context, f model.CandidateFilter) ([]model.Profile, error) {
	if r.pool == nil {
		return nil, errNilPool
	}

	args := candidateArgs(f)
	rows, err := r.pool.Query(ctx, `
SELECT `+profileColumns+`
FROM profiles p
WHERE
	p.is_active = TRUE
	AND p.profile_hidden = FALSE
	AND NOT (p.telegram_id = ANY($1::bigint[]))
	AND ($2::int = 0 OR p.age >= $2)
	AND ($3::int = 0 OR p.age <= $3)
	AND ($4::text = '' OR p.gender = $4)
	AND ($5::boolean = FALSE OR p.city = ANY($6::text[]))
ORDER BY p.created_at, p.telegram_id
LIMIT NULLIF($7::int, 0)
`, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return collectProfiles(rows)
}

func candidateArgs(f model.CandidateFilter) []any {
	exclude := f.ExcludeIDs
	if exclude == nil {
		exclude = []int64{}
	}
	cities := f.Cities
	if cities == nil {
		cities = []string{}
	}
	limit := f.Limit
	if limit < 0 {
		limit = 0
	}
	return []any{
		exclude,
		f.MinAge,
		f.MaxAge,
		string(f.Gender),
		f.HasCityFilter(),
		cities,
		limit,
	}
}

func (r *ProfileRepo) UpdatePhotos(ctx context.Context, telegramID int64, photo string, photos []string) error {
	if r.pool == nil {
		return errNilPool
	}
	if photos == nil {
		photos = []string{}
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET photo = $2, photos = $3
WHERE telegram_id = $1
`, telegramID, photo, photos)
	if err != nil {
		return fmt.Errorf("update profile photos: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}

func (r *ProfileRepo) TouchLastSeen(ctx context.Context, telegramID int64, at time.Time) error {
	if r.pool == nil {
		return errNilPool
	}

	tag, err := r.pool.Exec(ctx, `UPDATE profiles SET last_seen = $2 WHERE telegram_id = $1`, telegramID, at.UTC())
	if err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}

// StartAIMatchmakingTrial stamps the first-use instant once. It reports whether this call set it.
func (r *ProfileRepo) StartAIMatchmakingTrial(ctx context.Context, telegramID int64, at time.Time) (bool, error) {
	if r.pool == nil {
		return false, errNilPool
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET ai_matchmaking_first_used = $2
WHERE telegram_id = $1 AND ai_matchmaking_first_used IS NULL
`, telegramID, at.UTC())
	if err != nil {
		return false, fmt.Errorf("start ai matchmaking trial: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ConsumeSuperlike decrements superlike_credits when positive.
func (r *ProfileRepo) ConsumeSuperlike(ctx context.Context, telegramID int64) (bool, error) {
	if r.pool == nil {
		return false, errNilPool
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET superlike_credits = superlike_credits - 1
WHERE telegram_id = $1 AND superlike_credits > 0
`, telegramID)
	if err != nil {
		return false, fmt.Errorf("consume superlike: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ProfileRepo) ClearExpiredPremium(ctx context.Context, now time.Time) (int64, error) {
	if r.pool == nil {
		return 0, errNilPool
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET premium_type = '', premium_until = NULL
WHERE premium_until IS NOT NULL AND premium_until <= $1
`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("clear expired premium: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ProfileRepo) ClearExpiredBoosts(ctx context.Context, now time.Time) (int64, error) {
	if r.pool == nil {
		return 0, errNilPool
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET boost_until = NULL
WHERE boost_until IS NOT NULL AND boost_until <= $1
`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("clear expired boosts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ProfileRepo) ResetBoostWeeks(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, errNilPool
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles
SET boosts_this_week = 0, boost_week_reset = NULL
WHERE boosts_this_week > 0 AND (boost_week_reset IS NULL OR boost_week_reset <= $1)
`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("reset boost weeks: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectProfiles(rows pgx.Rows) ([]model.Profile, error) {
	defer rows.Close()

	items := make([]model.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		items = append(items, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return items, nil
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var (
		p           model.Profile
		gender      string
		lookingFor  string
		premiumType string
	)
	err := row.Scan(
		&p.TelegramID,
		&p.Username,
		&p.Name,
		&gender,
		&p.Age,
		&p.City,
		&lookingFor,
		&p.About,
		&p.Photo,
		&p.Photos,
		&p.IsActive,
		&p.ProfileHidden,
		&premiumType,
		&p.PremiumUntil,
		&p.SuperlikeCredits,
		&p.BoostUntil,
		&p.BoostsThisWeek,
		&p.BoostWeekReset,
		&p.ReferredBy,
		&p.ReferralBalance,
		&p.IcebreakerUsed,
		&p.AIMatchmakingFirstUsed,
		&p.LastSeen,
		&p.ProfileAnswers,
		&p.CreatedAt,
	)
	if err != nil {
		return model.Profile{}, err
	}
	p.Gender = enums.ParseGender(gender)
	p.LookingFor = enums.ParseGender(lookingFor)
	p.PremiumType = enums.ParsePremiumType(premiumType)
	return p, nil
}

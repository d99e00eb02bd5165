package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

type PhotoRepo struct {
	pool *pgxpool.Pool
}

func NewPhotoRepo(pool *pgxpool.Pool) *PhotoRepo {
	return &PhotoRepo{pool: pool}
}

// ToggleLike removes an existing like or adds a new one. It returns the resulting state.
func (r *PhotoRepo) ToggleLike(ctx context.Context, slot model.PhotoSlot, fromUser int64, at time.Time) (bool, error) {
	var liked bool
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
DELETE FROM photo_likes
WHERE owner_id = $1 AND photo_index = $2 AND from_user = $3
`, slot.OwnerID, slot.PhotoIndex, fromUser)
		if err != nil {
			return fmt.Errorf("delete photo like: %w", err)
		}
		if tag.RowsAffected() > 0 {
			liked = false
			return nil
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO photo_likes (owner_id, photo_index, from_user, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT DO NOTHING
`, slot.OwnerID, slot.PhotoIndex, fromUser, at.UTC()); err != nil {
			return fmt.Errorf("insert photo like: %w", err)
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

func (r *PhotoRepo) LikesInfo(ctx context.Context, slot model.PhotoSlot, viewerID int64) (model.PhotoLikesInfo, error) {
	if r.pool == nil {
		return model.PhotoLikesInfo{}, errNilPool
	}

	var info model.PhotoLikesInfo
	if err := r.pool.QueryRow(ctx, `
SELECT
	COUNT(*),
	COALESCE(BOOL_OR(from_user = $3), FALSE)
FROM photo_likes
WHERE owner_id = $1 AND photo_index = $2
`, slot.OwnerID, slot.PhotoIndex, viewerID).Scan(&info.Count, &info.LikedByMe); err != nil {
		return model.PhotoLikesInfo{}, fmt.Errorf("photo likes info: %w", err)
	}
	return info, nil
}

func (r *PhotoRepo) AddComment(ctx context.Context, c model.PhotoComment) error {
	if r.pool == nil {
		return errNilPool
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO photo_comments (id, owner_id, photo_index, from_user, from_name, text, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, c.ID, c.OwnerID, c.PhotoIndex, c.FromUser, c.FromName, c.Text, c.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert photo comment: %w", err)
	}
	return nil
}

// ListComments returns the latest limit comments in chronological order.
func (r *PhotoRepo) ListComments(ctx context.Context, slot model.PhotoSlot, limit int) ([]model.PhotoComment, error) {
	if r.pool == nil {
		return nil, errNilPool
	}

	rows, err := r.pool.Query(ctx, `
SELECT id::text, owner_id, photo_index, from_user, from_name, text, created_at
FROM (
	SELECT *
	FROM photo_comments
	WHERE owner_id = $1 AND photo_index = $2
	ORDER BY created_at DESC
	LIMIT $3
) latest
ORDER BY created_at ASC
`, slot.OwnerID, slot.PhotoIndex, limit)
	if err != nil {
		return nil, fmt.Errorf("list photo comments: %w", err)
	}
	defer rows.Close()

	items := make([]model.PhotoComment, 0)
	for rows.Next() {
		var c model.PhotoComment
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.PhotoIndex, &c.FromUser, &c.FromName, &c.Text, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan photo comment: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photo comments: %w", err)
	}
	return items, nil
}

func (r *PhotoRepo) PurgeSlot(ctx context.Context, slot model.PhotoSlot) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
DELETE FROM photo_likes WHERE owner_id = $1 AND photo_index = $2
`, slot.OwnerID, slot.PhotoIndex); err != nil {
			return fmt.Errorf("purge photo likes: %w", err)
		}
		if _, err := tx.Exec(ctx, `
DELETE FROM photo_comments WHERE owner_id = $1 AND photo_index = $2
`, slot.OwnerID, slot.PhotoIndex); err != nil {
			return fmt.Errorf("purge photo comments: %w", err)
		}
		return nil
	})
}

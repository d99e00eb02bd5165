package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/babymaxMAX/lsj-love/internal/domain/model"
)

type LikeRepo struct {
	pool *pgxpool.Pool
}

func NewLikeRepo(pool *pgxpool.Pool) *LikeRepo {
	return &LikeRepo{pool: pool}
}

// Create inserts the directed edge. created is false when the pair already existed.
func (r *LikeRepo) Create(ctx context.Context, fromUser, toUser int64, at time.Time) (model.Like, bool, error) {
	if r.pool == nil {
		return model.Like{}, false, errNilPool
	}

	like := model.Like{FromUser: fromUser, ToUser: toUser}
	err := r.pool.QueryRow(ctx, `
INSERT INTO likes (from_user, to_user, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (from_user, to_user) DO NOTHING
RETURNING created_at
`, fromUser, toUser, at.UTC()).Scan(&like.CreatedAt)
	if err == nil {
		return like, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Like{}, false, fmt.Errorf("insert like: %w", err)
	}

	if err := r.pool.QueryRow(ctx, `
SELECT created_at FROM likes WHERE from_user = $1 AND to_user = $2
`, fromUser, toUser).Scan(&like.CreatedAt); err != nil {
		return model.Like{}, false, fmt.Errorf("load existing like: %w", err)
	}
	return like, false, nil
}

func (r *LikeRepo) Delete(ctx context.Context, fromUser, toUser int64) (bool, error) {
	if r.pool == nil {
		return false, errNilPool
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM likes WHERE from_user = $1 AND to_user = $2`, fromUser, toUser)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *LikeRepo) Exists(ctx context.Context, fromUser, toUser int64) (bool, error) {
	if r.pool == nil {
		return false, errNilPool
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM likes WHERE from_user = $1 AND to_user = $2)
`, fromUser, toUser).Scan(&exists); err != nil {
		return false, fmt.Errorf("lookup like: %w", err)
	}
	return exists, nil
}

func (r *LikeRepo) LikedFrom(ctx context.Context, userID int64) ([]int64, error) {
	return r.listIDs(ctx, `
SELECT to_user FROM likes WHERE from_user = $1 ORDER BY created_at DESC
`, userID)
}

func (r *LikeRepo) LikedBy(ctx context.Context, userID int64) ([]int64, error) {
	return r.listIDs(ctx, `
SELECT from_user FROM likes WHERE to_user = $1 ORDER BY created_at DESC
`, userID)
}

func (r *LikeRepo) CountSince(ctx context.Context, fromUser int64, since time.Time) (int, error) {
	if r.pool == nil {
		return 0, errNilPool
	}

	var count int
	if err := r.pool.QueryRow(ctx, `
SELECT COUNT(*) FROM likes WHERE from_user = $1 AND created_at >= $2
`, fromUser, since.UTC()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return count, nil
}

func (r *LikeRepo) listIDs(ctx context.Context, query string, userID int64) ([]int64, error) {
	if r.pool == nil {
		return nil, errNilPool
	}

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list like ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect like ids: %w", err)
	}
	return ids, nil
}

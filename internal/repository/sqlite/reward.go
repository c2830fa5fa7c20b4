package sqlite

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/model"
	"github.com/apexkudos/kudos/internal/repository"
)

var _ repository.RewardRepository = (*DB)(nil)

const rewardColumns = `id, name, description, point_cost, archived_at IS NULL`

func scanReward(s rowScanner) (*model.Reward, error) {
	var r model.Reward
	if err := s.Scan(&r.ID, &r.Name, &r.Description, &r.PointCost, &r.IsActive); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReward inserts an active reward and fills in its ID.
func (db *DB) CreateReward(ctx context.Context, reward *model.Reward) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO rewards (name, description, point_cost, created_at) VALUES (?, ?, ?, ?)`,
		reward.Name, reward.Description, reward.PointCost, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting reward %q: %w", reward.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new reward id: %w", err)
	}
	reward.ID = id
	reward.IsActive = true
	return nil
}

// GetReward returns a reward whether or not it is archived; IsActive tells.
func (db *DB) GetReward(ctx context.Context, id int64) (*model.Reward, error) {
	return getReward(ctx, db.conn, id)
}

func getReward(ctx context.Context, q queryer, id int64) (*model.Reward, error) {
	r, err := scanReward(q.QueryRowContext(ctx,
		`SELECT `+rewardColumns+` FROM rewards WHERE id = ?`, id,
	))
	if err != nil {
		if errNoRows(err) {
			return nil, apperror.NotFound("reward", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting reward %d: %w", id, err)
	}
	return r, nil
}

// ListActiveRewards returns rewards that have not been archived, oldest first.
func (db *DB) ListActiveRewards(ctx context.Context) ([]model.Reward, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+rewardColumns+` FROM rewards WHERE archived_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing rewards: %w", err)
	}
	defer rows.Close()

	rewards := []model.Reward{}
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating rewards: %w", err)
	}
	return rewards, nil
}

// ArchiveReward withdraws a reward. Existing redemptions keep pointing at it.
func (db *DB) ArchiveReward(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE rewards SET archived_at = ? WHERE id = ? AND archived_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: archiving reward %d: %w", id, err)
	}
	return requireAffected(res, "reward", id)
}

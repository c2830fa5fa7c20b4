package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/model"
	"github.com/apexkudos/kudos/internal/repository"
)

var _ repository.RedemptionRepository = (*DB)(nil)

const redemptionSelect = `SELECT d.id, d.user_id, d.points_spent, d.status, d.redeemed_at,
	w.id, w.name, w.description, w.point_cost, w.archived_at IS NULL
	FROM redemptions d
	JOIN rewards w ON w.id = d.reward_id`

func scanRedemption(s rowScanner) (*model.Redemption, error) {
	var d model.Redemption
	err := s.Scan(
		&d.ID, &d.UserID, &d.PointsSpent, &d.Status, &d.RedeemedAt,
		&d.Reward.ID, &d.Reward.Name, &d.Reward.Description, &d.Reward.PointCost, &d.Reward.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Redeem spends the reward's point cost from the user's balance and records
// a pending redemption. The balance check and the debit happen in the same
// transaction, so two concurrent redemptions cannot overdraw.
func (db *DB) Redeem(ctx context.Context, userID, rewardID int64) (*model.Redemption, error) {
	var created *model.Redemption

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		reward, err := getReward(ctx, tx, rewardID)
		if err != nil {
			return err
		}
		if !reward.IsActive {
			return apperror.NotFound("reward", strconv.FormatInt(rewardID, 10))
		}

		user, err := getUserByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user.PointsBalance < reward.PointCost {
			return apperror.ValidationFailed("reward_id", "Not enough points")
		}

		if err := addPoints(ctx, tx, userID, -reward.PointCost); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO redemptions (user_id, reward_id, points_spent, status, redeemed_at)
			 VALUES (?, ?, ?, ?, ?)`,
			userID, rewardID, reward.PointCost, model.RedemptionPending, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting redemption: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading new redemption id: %w", err)
		}

		created, err = scanRedemption(tx.QueryRowContext(ctx, redemptionSelect+` WHERE d.id = ?`, id))
		if err != nil {
			return fmt.Errorf("sqlite: reading redemption %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetRedemption returns a single redemption.
func (db *DB) GetRedemption(ctx context.Context, id int64) (*model.Redemption, error) {
	d, err := scanRedemption(db.conn.QueryRowContext(ctx, redemptionSelect+` WHERE d.id = ?`, id))
	if err != nil {
		if errNoRows(err) {
			return nil, apperror.NotFound("redemption", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting redemption %d: %w", id, err)
	}
	return d, nil
}

// ListRedemptions returns redemptions newest first, optionally for one user.
func (db *DB) ListRedemptions(ctx context.Context, filter repository.RedemptionFilter) ([]model.Redemption, error) {
	query := redemptionSelect
	var args []any
	if filter.UserID != 0 {
		query += ` WHERE d.user_id = ?`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY d.redeemed_at DESC, d.id DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing redemptions: %w", err)
	}
	defer rows.Close()

	list := []model.Redemption{}
	for rows.Next() {
		d, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning redemption: %w", err)
		}
		list = append(list, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating redemptions: %w", err)
	}
	return list, nil
}

// FulfillRedemption marks a pending redemption fulfilled. An unknown id is
// apperror.ErrNotFound; an already fulfilled one is apperror.ErrConflict.
func (db *DB) FulfillRedemption(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE redemptions SET status = ?, fulfilled_at = ? WHERE id = ? AND status = ?`,
			model.RedemptionFulfilled, time.Now().UTC(), id, model.RedemptionPending,
		)
		if err != nil {
			return fmt.Errorf("sqlite: fulfilling redemption %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: fulfilling redemption %d: %w", id, err)
		}
		if n > 0 {
			return nil
		}

		var exists bool
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM redemptions WHERE id = ?)`, id,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("sqlite: checking redemption %d: %w", id, err)
		}
		if !exists {
			return apperror.NotFound("redemption", strconv.FormatInt(id, 10))
		}
		return apperror.Conflict("redemption", strconv.FormatInt(id, 10))
	})
}

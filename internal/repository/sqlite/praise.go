package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/model"
	"github.com/apexkudos/kudos/internal/repository"
)

var _ repository.PraiseRepository = (*DB)(nil)

// praiseSelect joins praise with both users and the core value so a single
// row carries everything the API returns.
var praiseSelect = `SELECT p.id, p.message, p.points_awarded, p.created_at, ` +
	aliasColumns("g", userColumns) + `, ` +
	aliasColumns("r", userColumns) + `,
	cv.id, cv.name, cv.description
	FROM praise p
	JOIN users g ON g.id = p.giver_id
	JOIN users r ON r.id = p.receiver_id
	JOIN core_values cv ON cv.id = p.core_value_id`

// aliasColumns prefixes every column in a comma-separated list with alias.
func aliasColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

func scanPraise(s rowScanner) (*model.Praise, error) {
	var (
		p                         model.Praise
		giverSlack, receiverSlack sql.NullString
	)
	err := s.Scan(
		&p.ID, &p.Message, &p.PointsAwarded, &p.CreatedAt,
		&p.Giver.ID, &p.Giver.Email, &p.Giver.FirstName, &p.Giver.LastName, &p.Giver.PasswordHash,
		&p.Giver.PointsBalance, &p.Giver.IsAdmin, &giverSlack, &p.Giver.CreatedAt,
		&p.Receiver.ID, &p.Receiver.Email, &p.Receiver.FirstName, &p.Receiver.LastName, &p.Receiver.PasswordHash,
		&p.Receiver.PointsBalance, &p.Receiver.IsAdmin, &receiverSlack, &p.Receiver.CreatedAt,
		&p.CoreValue.ID, &p.CoreValue.Name, &p.CoreValue.Description,
	)
	if err != nil {
		return nil, err
	}
	p.Giver.SlackID = giverSlack.String
	p.Receiver.SlackID = receiverSlack.String
	return &p, nil
}

// CreatePraise inserts the praise, credits the receiver PointsAwarded and the
// giver GiverBonus, and returns the stored praise. All or nothing.
func (db *DB) CreatePraise(ctx context.Context, in repository.NewPraise) (*model.Praise, error) {
	var created *model.Praise

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO praise (giver_id, receiver_id, core_value_id, message, points_awarded, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			in.GiverID, in.ReceiverID, in.CoreValueID, in.Message, in.PointsAwarded, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting praise: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading new praise id: %w", err)
		}

		if err := addPoints(ctx, tx, in.ReceiverID, in.PointsAwarded); err != nil {
			return err
		}
		if err := addPoints(ctx, tx, in.GiverID, in.GiverBonus); err != nil {
			return err
		}

		created, err = scanPraise(tx.QueryRowContext(ctx, praiseSelect+` WHERE p.id = ?`, id))
		if err != nil {
			return fmt.Errorf("sqlite: reading praise %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ListPraise returns praise newest first, optionally for a single receiver.
func (db *DB) ListPraise(ctx context.Context, filter repository.PraiseFilter) ([]model.Praise, error) {
	query := praiseSelect
	var args []any
	if filter.ReceiverID != 0 {
		query += ` WHERE p.receiver_id = ?`
		args = append(args, filter.ReceiverID)
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing praise: %w", err)
	}
	defer rows.Close()

	list := []model.Praise{}
	for rows.Next() {
		p, err := scanPraise(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning praise: %w", err)
		}
		list = append(list, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating praise: %w", err)
	}
	return list, nil
}

// addPoints adjusts a balance by delta. The CHECK constraint keeps balances
// non-negative; callers debiting must check first.
func addPoints(ctx context.Context, tx *sql.Tx, userID int64, delta int) error {
	if delta == 0 {
		return nil
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET points_balance = points_balance + ? WHERE id = ?`, delta, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: adjusting points for user %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: adjusting points for user %d: %w", userID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", strconv.FormatInt(userID, 10))
	}
	return nil
}

// errNoRows reports whether err is sql.ErrNoRows.
func errNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

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

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, email, first_name, last_name, password_hash, points_balance, is_admin, slack_id, created_at`

// rowScanner is the common subset of *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u       model.User
		slackID sql.NullString
	)
	err := s.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PasswordHash,
		&u.PointsBalance,
		&u.IsAdmin,
		&slackID,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.SlackID = slackID.String
	return &u, nil
}

// CreateUser inserts a new user and fills in ID and CreatedAt.
// A duplicate email or Slack ID is reported as a validation error.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now().UTC()

	var slackID sql.NullString
	if user.SlackID != "" {
		slackID = sql.NullString{String: user.SlackID, Valid: true}
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (email, first_name, last_name, password_hash, points_balance, is_admin, slack_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.PointsBalance,
		user.IsAdmin,
		slackID,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "slack_id") {
				return apperror.ValidationFailed("slack_id", "Slack account already linked")
			}
			return apperror.ValidationFailed("email", "Email already registered")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}
	user.ID = id
	return nil
}

// GetUserByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return getUserByID(ctx, db.conn, id)
}

func getUserByID(ctx context.Context, q queryer, id int64) (*model.User, error) {
	u, err := scanUser(q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail looks a user up by email, case-insensitively.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// GetUserBySlackID looks a user up by their linked Slack member ID.
func (db *DB) GetUserBySlackID(ctx context.Context, slackID string) (*model.User, error) {
	u, err := scanUser(db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE slack_id = ?`, slackID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", slackID)
		}
		return nil, fmt.Errorf("sqlite: getting user by slack id: %w", err)
	}
	return u, nil
}

// ListUsers returns every user ordered by ID.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// SetAdmin grants or revokes the admin flag for the user with the given email.
func (db *DB) SetAdmin(ctx context.Context, email string, admin bool) (bool, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET is_admin = ? WHERE email = ?`, admin, email,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: setting admin for %s: %w", email, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: setting admin for %s: %w", email, err)
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

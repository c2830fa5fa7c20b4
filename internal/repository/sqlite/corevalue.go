package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/apexkudos/kudos/internal/apperror"
	"github.com/apexkudos/kudos/internal/model"
	"github.com/apexkudos/kudos/internal/repository"
)

var _ repository.CoreValueRepository = (*DB)(nil)

// CreateCoreValue inserts a core value and fills in its ID.
func (db *DB) CreateCoreValue(ctx context.Context, cv *model.CoreValue) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO core_values (name, description, created_at) VALUES (?, ?, ?)`,
		cv.Name, cv.Description, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting core value %q: %w", cv.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new core value id: %w", err)
	}
	cv.ID = id
	return nil
}

// GetCoreValue returns an active (non-archived) core value.
func (db *DB) GetCoreValue(ctx context.Context, id int64) (*model.CoreValue, error) {
	var cv model.CoreValue
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description FROM core_values WHERE id = ? AND archived_at IS NULL`, id,
	).Scan(&cv.ID, &cv.Name, &cv.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("core value", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting core value %d: %w", id, err)
	}
	return &cv, nil
}

// FindCoreValueByName returns the first active core value whose name contains
// fragment, ignoring case and spaces ("#AboveAndBeyond" finds "Above and Beyond").
func (db *DB) FindCoreValueByName(ctx context.Context, fragment string) (*model.CoreValue, error) {
	var cv model.CoreValue
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, description FROM core_values
		 WHERE archived_at IS NULL
		   AND (name LIKE '%' || ? || '%' OR REPLACE(name, ' ', '') LIKE '%' || ? || '%')
		 ORDER BY id LIMIT 1`,
		fragment, fragment,
	).Scan(&cv.ID, &cv.Name, &cv.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("core value", fragment)
		}
		return nil, fmt.Errorf("sqlite: finding core value %q: %w", fragment, err)
	}
	return &cv, nil
}

// ListCoreValues returns active core values in creation order.
func (db *DB) ListCoreValues(ctx context.Context) ([]model.CoreValue, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, description FROM core_values WHERE archived_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing core values: %w", err)
	}
	defer rows.Close()

	values := []model.CoreValue{}
	for rows.Next() {
		var cv model.CoreValue
		if err := rows.Scan(&cv.ID, &cv.Name, &cv.Description); err != nil {
			return nil, fmt.Errorf("sqlite: scanning core value: %w", err)
		}
		values = append(values, cv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating core values: %w", err)
	}
	return values, nil
}

// ArchiveCoreValue hides a core value from listings. Praise that already
// references it keeps rendering. Archiving twice reports not found.
func (db *DB) ArchiveCoreValue(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE core_values SET archived_at = ? WHERE id = ? AND archived_at IS NULL`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: archiving core value %d: %w", id, err)
	}
	return requireAffected(res, "core value", id)
}

// requireAffected turns "zero rows updated" into apperror.NotFound.
func requireAffected(res sql.Result, resource string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking affected rows: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, strconv.FormatInt(id, 10))
	}
	return nil
}

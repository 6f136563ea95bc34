package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/model/record"
	"github.com/m-mizutani/inari/pkg/domain/types"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

const selectColumns = `id, record_key, version, active, data, created_at`

// Insert stores a new version of rec.Key. Writers to the same key are
// serialized by a transaction-scoped advisory lock; the unique constraint
// on (table_name, record_key, version) backs it up.
func (c *Client) Insert(ctx context.Context, rec *record.Record) (*record.Record, error) {
	if rec == nil {
		return nil, goerr.New("record cannot be nil", goerr.T(apperr.ErrTagInvalidInput))
	}
	if err := rec.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid record", goerr.T(apperr.ErrTagInvalidInput))
	}

	encoded := rec.Key.String()
	keyOpt := goerr.TV(apperr.RecordKeyKey, encoded)

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return nil, wrapErr(err, "failed to begin transaction", rec.Table, keyOpt)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rec.Table+"/"+encoded); err != nil {
		return nil, wrapErr(err, "failed to acquire key lock", rec.Table, keyOpt)
	}

	var prev *record.Record
	var prevVersion int64
	var prevCreatedAt time.Time
	err = tx.QueryRow(ctx,
		`SELECT version, created_at FROM versioned_records
		 WHERE table_name = $1 AND record_key = $2
		 ORDER BY version DESC LIMIT 1`,
		rec.Table, encoded,
	).Scan(&prevVersion, &prevCreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// first version of this key
	case err != nil:
		return nil, wrapErr(err, "failed to query latest version", rec.Table, keyOpt)
	default:
		prev = &record.Record{Version: prevVersion, CreatedAt: prevCreatedAt}
	}

	stored := rec.Copy()
	stored.ID = types.NewVersionID(ctx)
	stored.Version = record.NextVersion(prev)
	// timestamptz keeps microseconds
	stored.CreatedAt = record.NextCreatedAt(c.now().UTC().Truncate(time.Microsecond), prev)

	if _, err := tx.Exec(ctx,
		`INSERT INTO versioned_records (id, table_name, record_key, version, active, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		stored.ID.String(), stored.Table, encoded, stored.Version, stored.Active, stored.Data, stored.CreatedAt,
	); err != nil {
		return nil, wrapErr(err, "failed to insert record", rec.Table, keyOpt)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, wrapErr(err, "failed to commit record", rec.Table, keyOpt)
	}
	return stored, nil
}

// GetLatest returns the newest version of key, or nil if none exists
func (c *Client) GetLatest(ctx context.Context, table string, key record.Key, activeOnly bool) (*record.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM versioned_records
		WHERE table_name = $1 AND record_key = $2`
	if activeOnly {
		query += ` AND active`
	}
	query += ` ORDER BY version DESC LIMIT 1`

	rows, err := c.pool.Query(ctx, query, table, key.String())
	if err != nil {
		return nil, wrapErr(err, "failed to query latest record", table,
			goerr.TV(apperr.RecordKeyKey, key.String()))
	}

	records, err := scanRecords(rows, table)
	if err != nil {
		return nil, wrapErr(err, "failed to scan latest record", table,
			goerr.TV(apperr.RecordKeyKey, key.String()))
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// GetHistory returns up to limit versions of key, newest first
func (c *Client) GetHistory(ctx context.Context, table string, key record.Key, limit int) ([]*record.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM versioned_records
		WHERE table_name = $1 AND record_key = $2
		ORDER BY version DESC`
	args := []any{table, key.String()}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err, "failed to query record history", table,
			goerr.TV(apperr.RecordKeyKey, key.String()),
			goerr.TV(apperr.LimitKey, limit))
	}

	records, err := scanRecords(rows, table)
	if err != nil {
		return nil, wrapErr(err, "failed to scan record history", table,
			goerr.TV(apperr.RecordKeyKey, key.String()))
	}
	return records, nil
}

// ListKeys returns every key stored in table, sorted by encoded form
func (c *Client) ListKeys(ctx context.Context, table string) ([]record.Key, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT record_key FROM versioned_records WHERE table_name = $1 GROUP BY record_key`, table)
	if err != nil {
		return nil, wrapErr(err, "failed to query record keys", table)
	}

	encoded, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapErr(err, "failed to scan record keys", table)
	}

	// sorted here rather than in SQL so the order does not depend on collation
	sort.Strings(encoded)
	keys := make([]record.Key, len(encoded))
	for i, k := range encoded {
		keys[i] = record.ParseKey(k)
	}
	return keys, nil
}

func scanRecords(rows pgx.Rows, table string) ([]*record.Record, error) {
	defer rows.Close()

	var records []*record.Record
	for rows.Next() {
		var (
			id      string
			key     string
			rec     record.Record
			created time.Time
		)
		if err := rows.Scan(&id, &key, &rec.Version, &rec.Active, &rec.Data, &created); err != nil {
			return nil, err
		}
		rec.ID = types.VersionID(id)
		rec.Table = table
		rec.Key = record.ParseKey(key)
		rec.CreatedAt = created
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

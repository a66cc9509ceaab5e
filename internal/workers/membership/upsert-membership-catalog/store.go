package upsertmembershipcatalog

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"clinic-workers/internal/models"
)

// lockQuery serialises guarded writes per tier until the transaction ends. The
// conflict check alone locks nothing when no current row exists yet.
const lockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

const conflictQuery = `
	SELECT id FROM membership_catalog
	WHERE tier = $1
	  AND active
	  AND (no_expiration OR valid_until IS NULL OR valid_until > $2)
	  AND id <> $3
	LIMIT 1
	FOR UPDATE`

const insertQuery = `
	INSERT INTO membership_catalog
		(id, tier, name, description, price, coverage, no_expiration, valid_until, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

const updateQuery = `
	UPDATE membership_catalog
	SET tier = $2, name = $3, description = $4, price = $5, coverage = $6,
	    no_expiration = $7, valid_until = $8, active = $9, updated_at = $10
	WHERE id = $1`

func lockTier(ctx context.Context, tx *sql.Tx, tier models.Tier) error {
	_, err := tx.ExecContext(ctx, lockQuery, tierLockKey(tier))
	return err
}

func tierLockKey(tier models.Tier) string {
	return "membership_catalog:" + string(tier)
}

// findCurrentConflict returns the id of another current, active definition of
// tier, or "" when there is none.
func findCurrentConflict(ctx context.Context, tx *sql.Tx, tier models.Tier, excludeID string, now time.Time) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, conflictQuery, string(tier), now, excludeID).Scan(&id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func insertDefinition(ctx context.Context, tx *sql.Tx, def models.CatalogDefinition) error {
	_, err := tx.ExecContext(ctx, insertQuery, definitionArgs(def)...)
	return err
}

// updateDefinition reports whether the row existed.
func updateDefinition(ctx context.Context, tx *sql.Tx, def models.CatalogDefinition) (bool, error) {
	res, err := tx.ExecContext(ctx, updateQuery, definitionArgs(def)...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func definitionArgs(def models.CatalogDefinition) []interface{} {
	var validUntil interface{}
	if def.ValidUntil != nil {
		validUntil = *def.ValidUntil
	}
	return []interface{}{
		def.ID, string(def.Tier), def.Name, def.Description, def.Price, def.Coverage,
		def.NoExpiration, validUntil, def.Active, def.UpdatedAt,
	}
}

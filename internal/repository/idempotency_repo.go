package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ResourceReport is the resource_type for report creation keys.
const ResourceReport = "report"

// IdempotencyResult holds the outcome of an atomic claim attempt.
type IdempotencyResult struct {
	// AlreadyExists is true when a live claim for the key was already held.
	AlreadyExists bool
	// ResourceID is the resource_id associated with the key (existing or newly claimed).
	ResourceID int64
}

// IdempotencyRepository handles atomic idempotency key operations.
type IdempotencyRepository struct {
	pool *pgxpool.Pool
}

// NewIdempotencyRepository creates a new idempotency repository.
func NewIdempotencyRepository(pool *pgxpool.Pool) *IdempotencyRepository {
	return &IdempotencyRepository{pool: pool}
}

// An expired key is taken over by the new claim. A live key is left alone
// and its resource_id is returned instead.
const claimQuery = `
	WITH claimed AS (
		INSERT INTO idempotency_keys (key, owner_id, resource_type, resource_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, key, resource_type) DO UPDATE
			SET resource_id = EXCLUDED.resource_id,
			    created_at  = NOW(),
			    expires_at  = NOW() + INTERVAL '24 hours'
			WHERE idempotency_keys.expires_at < NOW()
		RETURNING resource_id, FALSE AS already_exists
	)
	SELECT resource_id, already_exists FROM claimed
	UNION ALL
	SELECT resource_id, TRUE AS already_exists
	FROM idempotency_keys
	WHERE owner_id = $2 AND key = $1 AND resource_type = $3
	  AND NOT EXISTS (SELECT 1 FROM claimed)
`

// ClaimTx claims key for resourceID inside tx, so the claim commits or rolls
// back together with the resource it points at.
func (r *IdempotencyRepository) ClaimTx(
	ctx context.Context,
	tx pgx.Tx,
	ownerID int64,
	key string,
	resourceType string,
	resourceID int64,
) (*IdempotencyResult, error) {
	if key == "" {
		return nil, errors.New("idempotency key cannot be empty")
	}

	var result IdempotencyResult
	err := tx.QueryRow(ctx, claimQuery, key, ownerID, resourceType, resourceID).Scan(
		&result.ResourceID,
		&result.AlreadyExists,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The competing row is not visible yet to this snapshot; a
			// concurrent transaction holds the key.
			return &IdempotencyResult{AlreadyExists: true}, nil
		}
		return nil, err
	}

	return &result, nil
}

// Lookup returns the resource id held by a live claim, or 0 when the key is
// free or expired.
func (r *IdempotencyRepository) Lookup(ctx context.Context, ownerID int64, key, resourceType string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT resource_id FROM idempotency_keys
		WHERE owner_id = $1 AND key = $2 AND resource_type = $3
		  AND expires_at >= NOW()
	`, ownerID, key, resourceType).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return id, nil
}

// CleanExpired removes expired idempotency keys.
func (r *IdempotencyRepository) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

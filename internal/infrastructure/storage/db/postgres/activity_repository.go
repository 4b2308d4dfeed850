package postgresdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/armagg/coin-payments/internal/core/domain"
	"github.com/armagg/coin-payments/internal/core/ports"
)

const createActivityTable = `
CREATE TABLE IF NOT EXISTS balance_activity (
	external_id VARCHAR(255) NOT NULL,
	activity_sequence VARCHAR(64) NOT NULL,
	direction VARCHAR(3) NOT NULL,
	network_type VARCHAR(32) NOT NULL,
	asset_symbol VARCHAR(32) NOT NULL,
	address VARCHAR(255) NOT NULL,
	extra_id VARCHAR(255) NOT NULL,
	amount VARCHAR(64) NOT NULL,
	confirmation_id VARCHAR(255) NOT NULL,
	confirmation_number BIGINT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (external_id, activity_sequence)
);
CREATE INDEX IF NOT EXISTS balance_activity_address_idx
	ON balance_activity (address, activity_sequence);
`

type activityRepositoryPg struct {
	pgxPool *pgxpool.Pool
}

// NewActivityRepositoryPgImpl returns an activity store backed by postgres.
// The schema is bootstrapped on first use.
func NewActivityRepositoryPgImpl(
	ctx context.Context, dbConfig pgxpool.Config,
) (ports.ActivityRepository, error) {
	pgxPool, err := pgxpool.ConnectConfig(ctx, &dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %s", err)
	}
	if _, err := pgxPool.Exec(ctx, createActivityTable); err != nil {
		pgxPool.Close()
		return nil, fmt.Errorf("failed to create activity schema: %s", err)
	}
	return &activityRepositoryPg{pgxPool}, nil
}

func (r *activityRepositoryPg) AddActivity(
	ctx context.Context, activity domain.BalanceActivity,
) (bool, error) {
	tag, err := r.pgxPool.Exec(ctx, `
		INSERT INTO balance_activity (
			external_id, activity_sequence, direction, network_type,
			asset_symbol, address, extra_id, amount, confirmation_id,
			confirmation_number, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (external_id, activity_sequence) DO NOTHING`,
		activity.ExternalID, activity.ActivitySequence, string(activity.Direction),
		activity.NetworkType, activity.AssetSymbol, activity.Address,
		activity.ExtraID, activity.Amount, activity.ConfirmationID,
		activity.ConfirmationNumber, activity.Timestamp,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *activityRepositoryPg) GetActivities(
	ctx context.Context, address, fromSequence, toSequence string,
) ([]domain.BalanceActivity, error) {
	rows, err := r.pgxPool.Query(ctx, `
		SELECT external_id, activity_sequence, direction, network_type,
			asset_symbol, address, extra_id, amount, confirmation_id,
			confirmation_number, timestamp
		FROM balance_activity
		WHERE address = $1
			AND ($2 = '' OR activity_sequence >= $2)
			AND ($3 = '' OR activity_sequence <= $3)
		ORDER BY activity_sequence`,
		address, fromSequence, toSequence,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]domain.BalanceActivity, 0)
	for rows.Next() {
		var activity domain.BalanceActivity
		var direction string
		var timestamp time.Time
		if err := rows.Scan(
			&activity.ExternalID, &activity.ActivitySequence, &direction,
			&activity.NetworkType, &activity.AssetSymbol, &activity.Address,
			&activity.ExtraID, &activity.Amount, &activity.ConfirmationID,
			&activity.ConfirmationNumber, &timestamp,
		); err != nil {
			return nil, err
		}
		activity.Direction = domain.ActivityDirection(direction)
		activity.Timestamp = timestamp
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

func (r *activityRepositoryPg) Close() error {
	r.pgxPool.Close()
	return nil
}

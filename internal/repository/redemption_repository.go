package repository

import (
	"context"
	"fmt"

	"coursepass/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// redemptionRepository implements the RedemptionRepository interface using PostgreSQL.
type redemptionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRedemptionRepository creates a new PostgreSQL-backed redemption ledger repository.
func NewRedemptionRepository(pool *pgxpool.Pool, logger zerolog.Logger) RedemptionRepository {
	return &redemptionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "redemption").Logger(),
	}
}

// Create inserts a write-once ledger entry within the provided transaction.
func (r *redemptionRepository) Create(ctx context.Context, tx pgx.Tx, record *model.RedemptionRecord) error {
	query := `
		INSERT INTO redemptions (id, user_id, voucher_id, course_id, amount, redeemed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := exec(r.pool, tx).Exec(ctx, query,
		record.ID,
		record.UserID,
		record.VoucherID,
		record.CourseID,
		record.Amount,
		record.RedeemedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", record.UserID).
			Str("voucher_id", record.VoucherID.String()).
			Msg("failed to create redemption record")
		return fmt.Errorf("failed to create redemption record: %w", err)
	}

	r.logger.Debug().
		Str("redemption_id", record.ID.String()).
		Str("voucher_id", record.VoucherID.String()).
		Msg("redemption record created")

	return nil
}

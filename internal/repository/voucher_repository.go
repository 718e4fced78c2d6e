package repository

import (
	"context"
	"errors"
	"fmt"

	"coursepass/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// voucherRepository implements the VoucherRepository interface using PostgreSQL.
type voucherRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewVoucherRepository creates a new PostgreSQL-backed voucher repository.
func NewVoucherRepository(pool *pgxpool.Pool, logger zerolog.Logger) VoucherRepository {
	return &voucherRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "voucher").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *voucherRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// FindByCode retrieves a voucher by its code along with its linked course IDs.
// The lookup is case-sensitive; code carries a unique index.
func (r *voucherRepository) FindByCode(ctx context.Context, code string) (*model.Voucher, error) {
	voucherQuery := `
		SELECT id, code, kind, is_active, expires_at, max_usage, used_count, created_at, updated_at
		FROM vouchers
		WHERE code = $1
	`

	var v model.Voucher
	err := r.pool.QueryRow(ctx, voucherQuery, code).Scan(
		&v.ID,
		&v.Code,
		&v.Kind,
		&v.IsActive,
		&v.ExpiresAt,
		&v.MaxUsage,
		&v.UsedCount,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("code", code).Msg("voucher not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query voucher")
		return nil, fmt.Errorf("failed to query voucher: %w", err)
	}

	coursesQuery := `
		SELECT course_id
		FROM voucher_courses
		WHERE voucher_id = $1
		ORDER BY course_id
	`

	rows, err := r.pool.Query(ctx, coursesQuery, v.ID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("voucher_id", v.ID.String()).
			Msg("failed to query voucher courses")
		return nil, fmt.Errorf("failed to query voucher courses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var courseID string
		if err := rows.Scan(&courseID); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan voucher course row")
			return nil, fmt.Errorf("failed to scan voucher course: %w", err)
		}
		v.CourseIDs = append(v.CourseIDs, courseID)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating voucher course rows")
		return nil, fmt.Errorf("error iterating voucher courses: %w", err)
	}

	return &v, nil
}

// Create inserts a voucher and its course links within the provided transaction.
func (r *voucherRepository) Create(ctx context.Context, tx pgx.Tx, voucher *model.Voucher) error {
	voucherQuery := `
		INSERT INTO vouchers (id, code, kind, is_active, expires_at, max_usage, used_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := exec(r.pool, tx).Exec(ctx, voucherQuery,
		voucher.ID,
		voucher.Code,
		voucher.Kind,
		voucher.IsActive,
		voucher.ExpiresAt,
		voucher.MaxUsage,
		voucher.UsedCount,
		voucher.CreatedAt,
		voucher.UpdatedAt,
	)
	if err != nil {
		// Unique violations are an expected outcome for generated codes;
		// leave classification to the caller.
		r.logger.Debug().
			Err(err).
			Str("voucher_id", voucher.ID.String()).
			Msg("failed to insert voucher")
		return fmt.Errorf("failed to insert voucher: %w", err)
	}

	if len(voucher.CourseIDs) > 0 {
		linkQuery := `
			INSERT INTO voucher_courses (voucher_id, course_id)
			VALUES ($1, $2)
		`

		batch := &pgx.Batch{}
		for _, courseID := range voucher.CourseIDs {
			batch.Queue(linkQuery, voucher.ID, courseID)
		}

		results := exec(r.pool, tx).SendBatch(ctx, batch)
		defer results.Close()

		for i := 0; i < len(voucher.CourseIDs); i++ {
			if _, err := results.Exec(); err != nil {
				r.logger.Error().
					Err(err).
					Str("voucher_id", voucher.ID.String()).
					Str("course_id", voucher.CourseIDs[i]).
					Msg("failed to link voucher course")
				return fmt.Errorf("failed to link voucher course: %w", err)
			}
		}
	}

	r.logger.Debug().
		Str("voucher_id", voucher.ID.String()).
		Str("code", voucher.Code).
		Int("course_count", len(voucher.CourseIDs)).
		Msg("voucher created successfully")

	return nil
}

// IncrementUsage atomically increments used_count, guarded by max_usage. The
// WHERE clause makes the store the arbiter between concurrent redeemers: once
// one writer has taken the last slot, the predicate fails for every other.
func (r *voucherRepository) IncrementUsage(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID) (bool, error) {
	query := `
		UPDATE vouchers
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND used_count < max_usage
	`

	tag, err := exec(r.pool, tx).Exec(ctx, query, voucherID)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("voucher_id", voucherID.String()).
			Msg("failed to increment voucher usage")
		return false, fmt.Errorf("failed to increment voucher usage: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().
			Str("voucher_id", voucherID.String()).
			Msg("conditional usage increment affected no rows")
		return false, nil
	}

	return true, nil
}

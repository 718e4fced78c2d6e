package service

import (
	"context"
	"fmt"
	"time"

	"coursepass/internal/export"
	"coursepass/internal/model"
	"coursepass/internal/repository"
	"coursepass/internal/voucher"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// maxBatchSize caps the number of single-use codes per generation call.
const maxBatchSize = 1000

// maxCollisionRetries bounds suffix regeneration when a generated code
// collides with an existing one.
const maxCollisionRetries = 5

// codeService implements CodeService.
type codeService struct {
	voucherRepo repository.VoucherRepository
	courseRepo  repository.CourseRepository
	exporter    export.Exporter
	logger      zerolog.Logger
}

// NewCodeService creates a new code generation service. The exporter is
// optional; when nil, batch export requests are ignored.
func NewCodeService(
	voucherRepo repository.VoucherRepository,
	courseRepo repository.CourseRepository,
	exporter export.Exporter,
	logger zerolog.Logger,
) CodeService {
	return &codeService{
		voucherRepo: voucherRepo,
		courseRepo:  courseRepo,
		exporter:    exporter,
		logger:      logger.With().Str("service", "code").Logger(),
	}
}

// GenerateShared creates one voucher with a shared usage limit. A custom code
// is used verbatim; otherwise a code is derived from the prefix plus a random
// suffix, regenerated on collision.
func (s *codeService) GenerateShared(ctx context.Context, req *model.GenerateRequest) (string, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return "", err
	}

	custom := req.CustomCodeOrPrefix != ""

	for attempt := 0; attempt <= maxCollisionRetries; attempt++ {
		code := req.CustomCodeOrPrefix
		if !custom {
			var err error
			code, err = voucher.NewCode(req.CustomCodeOrPrefix)
			if err != nil {
				s.logger.Error().Err(err).Msg("failed to derive code")
				return "", fmt.Errorf("failed to derive code: %w", err)
			}
		}

		now := time.Now()
		v := &model.Voucher{
			ID:        uuid.New(),
			Code:      code,
			Kind:      model.VoucherKindAccessCode,
			IsActive:  true,
			MaxUsage:  req.QuantityOrLimit,
			UsedCount: 0,
			CreatedAt: now,
			UpdatedAt: now,
			CourseIDs: req.CourseIDs,
		}

		err := s.createVoucher(ctx, v)
		if err == nil {
			s.logger.Info().
				Str("voucher_id", v.ID.String()).
				Str("code", code).
				Int("max_usage", v.MaxUsage).
				Int("course_count", len(v.CourseIDs)).
				Msg("shared access code created")
			return code, nil
		}

		if repository.IsUniqueViolation(err) {
			if custom {
				// A caller-supplied code that already exists is not retried.
				s.logger.Warn().Str("code", code).Msg("custom code already exists")
				return "", model.ErrGenericFailure
			}
			s.logger.Debug().
				Str("code", code).
				Int("attempt", attempt+1).
				Msg("generated code collided, retrying with a new suffix")
			continue
		}

		s.logger.Error().Err(err).Msg("failed to create shared access code")
		return "", fmt.Errorf("failed to create shared access code: %w", err)
	}

	s.logger.Error().Msg("exhausted code generation retries")
	return "", model.ErrGenericFailure
}

// GenerateBatch creates N single-use vouchers in one transaction. Either all
// N codes exist afterwards or none do. A suffix collision regenerates the
// affected entry inside the same transaction instead of failing the batch.
func (s *codeService) GenerateBatch(ctx context.Context, req *model.GenerateRequest) ([]string, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}
	if req.QuantityOrLimit > maxBatchSize {
		s.logger.Warn().Int("quantity", req.QuantityOrLimit).Msg("batch size exceeds cap")
		return nil, model.ErrInvalidQuantity
	}

	tx, err := s.voucherRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to generate batch: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	codes := make([]string, 0, req.QuantityOrLimit)
	for i := 0; i < req.QuantityOrLimit; i++ {
		code, cErr := s.insertSingleUse(ctx, tx, req)
		if cErr != nil {
			err = cErr
			return nil, err
		}
		codes = append(codes, code)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to commit batch")
		return nil, fmt.Errorf("failed to generate batch: %w", err)
	}

	s.logger.Info().
		Int("code_count", len(codes)).
		Str("prefix", req.CustomCodeOrPrefix).
		Msg("access code batch created")

	// Export happens after commit; the codes already exist, so an export
	// failure is logged but never surfaced as a generation failure.
	if req.Export && s.exporter != nil {
		batchName := req.CustomCodeOrPrefix
		if batchName == "" {
			batchName = voucher.DefaultPrefix
		}
		if location, eErr := s.exporter.Export(ctx, batchName, codes); eErr != nil {
			s.logger.Warn().Err(eErr).Msg("failed to export code batch")
		} else {
			s.logger.Info().Str("location", location).Msg("code batch exported")
		}
	}

	return codes, nil
}

// insertSingleUse inserts one max_usage=1 voucher, regenerating the suffix on
// a unique violation. Each attempt runs under a savepoint (a nested pgx
// transaction) so a failed insert does not abort the surrounding batch
// transaction.
func (s *codeService) insertSingleUse(ctx context.Context, tx pgx.Tx, req *model.GenerateRequest) (string, error) {
	for attempt := 0; attempt <= maxCollisionRetries; attempt++ {
		code, err := voucher.NewCode(req.CustomCodeOrPrefix)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to derive code")
			return "", fmt.Errorf("failed to derive code: %w", err)
		}

		now := time.Now()
		v := &model.Voucher{
			ID:        uuid.New(),
			Code:      code,
			Kind:      model.VoucherKindAccessCode,
			IsActive:  true,
			MaxUsage:  1,
			UsedCount: 0,
			CreatedAt: now,
			UpdatedAt: now,
			CourseIDs: req.CourseIDs,
		}

		savepoint, err := tx.Begin(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to create savepoint: %w", err)
		}

		err = s.voucherRepo.Create(ctx, savepoint, v)
		if err == nil {
			if err := savepoint.Commit(ctx); err != nil {
				return "", fmt.Errorf("failed to release savepoint: %w", err)
			}
			return code, nil
		}

		if rbErr := savepoint.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback savepoint")
		}

		if repository.IsUniqueViolation(err) {
			s.logger.Debug().
				Str("code", code).
				Int("attempt", attempt+1).
				Msg("batch code collided, retrying with a new suffix")
			continue
		}

		s.logger.Error().Err(err).Msg("failed to insert batch code")
		return "", fmt.Errorf("failed to insert batch code: %w", err)
	}

	s.logger.Error().Msg("exhausted batch code generation retries")
	return "", model.ErrGenericFailure
}

// createVoucher inserts one voucher and its course links atomically.
func (s *codeService) createVoucher(ctx context.Context, v *model.Voucher) error {
	tx, err := s.voucherRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := s.voucherRepo.Create(ctx, tx, v); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// validateRequest runs shared request validation for both generation modes.
func (s *codeService) validateRequest(ctx context.Context, req *model.GenerateRequest) error {
	if req == nil {
		return fmt.Errorf("generate request is nil")
	}

	if len(req.CourseIDs) == 0 {
		return model.ErrNoCoursesLinked
	}

	if req.QuantityOrLimit < 1 {
		s.logger.Warn().Int("quantity_or_limit", req.QuantityOrLimit).Msg("invalid quantity or limit")
		return model.ErrInvalidQuantity
	}

	if err := s.courseRepo.ValidateCoursesExist(ctx, req.CourseIDs); err != nil {
		s.logger.Warn().
			Int("course_count", len(req.CourseIDs)).
			Err(err).
			Msg("course validation failed")
		return err
	}

	return nil
}

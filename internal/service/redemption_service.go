package service

import (
	"context"
	"fmt"
	"time"

	"coursepass/internal/model"
	"coursepass/internal/repository"
	"coursepass/internal/voucher"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// redemptionService implements RedemptionService.
type redemptionService struct {
	voucherRepo    repository.VoucherRepository
	enrollmentRepo repository.EnrollmentRepository
	redemptionRepo repository.RedemptionRepository
	courseRepo     repository.CourseRepository
	logger         zerolog.Logger
}

// NewRedemptionService creates a new redemption service.
func NewRedemptionService(
	voucherRepo repository.VoucherRepository,
	enrollmentRepo repository.EnrollmentRepository,
	redemptionRepo repository.RedemptionRepository,
	courseRepo repository.CourseRepository,
	logger zerolog.Logger,
) RedemptionService {
	return &redemptionService{
		voucherRepo:    voucherRepo,
		enrollmentRepo: enrollmentRepo,
		redemptionRepo: redemptionRepo,
		courseRepo:     courseRepo,
		logger:         logger.With().Str("service", "redemption").Logger(),
	}
}

// Redeem validates the code and performs the atomic enrollment step.
//
// The usage counter is consumed through a conditional increment: the store
// only applies it while used_count < max_usage, so of two concurrent
// redemptions of the last slot exactly one commits. The loser is rolled back
// entirely and gets ErrQuotaRaceLost; re-attempting means re-validating,
// because the voucher may have flipped to quota-full in the meantime.
func (s *redemptionService) Redeem(ctx context.Context, code, userID string) (*model.RedemptionResult, error) {
	if code == "" {
		return nil, model.ErrInvalidCode
	}
	if userID == "" {
		return nil, model.ErrUnauthorised
	}

	// Load the voucher with its linked course set. One read, no writes.
	v, err := s.voucherRepo.FindByCode(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Str("code", code).Msg("failed to load voucher")
		return nil, fmt.Errorf("failed to load voucher: %w", err)
	}
	if v == nil {
		s.logger.Debug().Str("code", code).Msg("unknown access code")
		return nil, model.ErrInvalidCode
	}

	if err := voucher.Validate(v, time.Now()); err != nil {
		s.logger.Debug().
			Str("code", code).
			Str("user_id", userID).
			Err(err).
			Msg("voucher rejected by eligibility checks")
		return nil, err
	}

	// Re-redeeming a fully consumed code must be a no-op, not a wasted slot.
	enrolledIDs, err := s.enrollmentRepo.ListEnrolledCourseIDs(ctx, userID, v.CourseIDs)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list enrollments")
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	if len(enrolledIDs) == len(v.CourseIDs) {
		s.logger.Debug().
			Str("code", code).
			Str("user_id", userID).
			Msg("user already enrolled in every linked course")
		return nil, model.ErrAlreadyEnrolledAll
	}

	enrolled := make(map[string]bool, len(enrolledIDs))
	for _, id := range enrolledIDs {
		enrolled[id] = true
	}

	// Atomic unit of work: ledger entry, missing enrollments, conditional
	// usage increment. Any failure undoes all of it.
	tx, err := s.voucherRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to redeem code: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	now := time.Now()
	record := &model.RedemptionRecord{
		ID:         uuid.New(),
		UserID:     userID,
		VoucherID:  v.ID,
		CourseID:   v.CourseIDs[0],
		Amount:     0,
		RedeemedAt: now,
	}

	if err = s.redemptionRepo.Create(ctx, tx, record); err != nil {
		s.logger.Error().Err(err).Str("voucher_id", v.ID.String()).Msg("failed to write redemption record")
		return nil, fmt.Errorf("failed to redeem code: %w", err)
	}

	enrolledCount := 0
	for _, courseID := range v.CourseIDs {
		if enrolled[courseID] {
			continue
		}

		created, cErr := s.enrollmentRepo.Create(ctx, tx, &model.Enrollment{
			ID:         uuid.New(),
			UserID:     userID,
			CourseID:   courseID,
			Status:     model.EnrollmentStatusEnrolled,
			EnrolledAt: now,
		})
		if cErr != nil {
			err = cErr
			s.logger.Error().
				Err(err).
				Str("user_id", userID).
				Str("course_id", courseID).
				Msg("failed to create enrollment")
			return nil, fmt.Errorf("failed to redeem code: %w", err)
		}
		if created {
			enrolledCount++
		}
	}

	// A concurrent redemption by the same user may have filled every course
	// between the pre-check and the inserts. A usage slot must never be
	// consumed without at least one new enrollment to show for it.
	if enrolledCount == 0 {
		err = model.ErrAlreadyEnrolledAll
		return nil, err
	}

	ok, err := s.voucherRepo.IncrementUsage(ctx, tx, v.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("voucher_id", v.ID.String()).Msg("failed to increment usage")
		return nil, fmt.Errorf("failed to redeem code: %w", err)
	}
	if !ok {
		// Another redeemer took the last slot after our eligibility read.
		s.logger.Warn().
			Str("voucher_id", v.ID.String()).
			Str("user_id", userID).
			Msg("lost the usage increment race, rolling back")
		err = model.ErrQuotaRaceLost
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("voucher_id", v.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to redeem code: %w", err)
	}

	// Course titles are display-only; a catalogue read failure after commit
	// must not fail the redemption.
	var titles []string
	if courses, cErr := s.courseRepo.GetByIDs(ctx, v.CourseIDs); cErr != nil {
		s.logger.Warn().Err(cErr).Msg("failed to load course titles for response")
	} else {
		for _, c := range courses {
			titles = append(titles, c.Title)
		}
	}

	s.logger.Info().
		Str("voucher_id", v.ID.String()).
		Str("user_id", userID).
		Int("enrolled_count", enrolledCount).
		Msg("access code redeemed successfully")

	return &model.RedemptionResult{
		EnrolledCount: enrolledCount,
		CourseTitles:  titles,
	}, nil
}

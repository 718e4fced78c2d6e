package repository

import (
	"context"
	"fmt"

	"coursepass/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// enrollmentRepository implements the EnrollmentRepository interface using PostgreSQL.
type enrollmentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewEnrollmentRepository creates a new PostgreSQL-backed enrollment repository.
func NewEnrollmentRepository(pool *pgxpool.Pool, logger zerolog.Logger) EnrollmentRepository {
	return &enrollmentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "enrollment").Logger(),
	}
}

// ListEnrolledCourseIDs returns the subset of courseIDs the user is already enrolled in.
func (r *enrollmentRepository) ListEnrolledCourseIDs(ctx context.Context, userID string, courseIDs []string) ([]string, error) {
	if len(courseIDs) == 0 {
		return []string{}, nil
	}

	query := `
		SELECT course_id
		FROM enrollments
		WHERE user_id = $1 AND course_id = ANY($2)
		ORDER BY course_id
	`

	rows, err := r.pool.Query(ctx, query, userID, courseIDs)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", userID).
			Int("course_count", len(courseIDs)).
			Msg("failed to query enrollments")
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrolled []string
	for rows.Next() {
		var courseID string
		if err := rows.Scan(&courseID); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan enrollment row")
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		enrolled = append(enrolled, courseID)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating enrollment rows")
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}

	return enrolled, nil
}

// Create inserts an enrollment row within the provided transaction. The
// (user_id, course_id) unique constraint backs the ON CONFLICT clause, so a
// concurrent duplicate insert lands as created=false rather than an error.
func (r *enrollmentRepository) Create(ctx context.Context, tx pgx.Tx, enrollment *model.Enrollment) (bool, error) {
	query := `
		INSERT INTO enrollments (id, user_id, course_id, status, progress_percentage, enrolled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`

	tag, err := exec(r.pool, tx).Exec(ctx, query,
		enrollment.ID,
		enrollment.UserID,
		enrollment.CourseID,
		enrollment.Status,
		enrollment.ProgressPercentage,
		enrollment.EnrolledAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("user_id", enrollment.UserID).
			Str("course_id", enrollment.CourseID).
			Msg("failed to create enrollment")
		return false, fmt.Errorf("failed to create enrollment: %w", err)
	}

	created := tag.RowsAffected() > 0
	if !created {
		r.logger.Debug().
			Str("user_id", enrollment.UserID).
			Str("course_id", enrollment.CourseID).
			Msg("enrollment already exists, insert skipped")
	}

	return created, nil
}

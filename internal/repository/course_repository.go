package repository

import (
	"context"
	"fmt"

	"coursepass/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// courseRepository implements the CourseRepository interface using PostgreSQL.
type courseRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCourseRepository creates a new PostgreSQL-backed course repository.
func NewCourseRepository(pool *pgxpool.Pool, logger zerolog.Logger) CourseRepository {
	return &courseRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "course").Logger(),
	}
}

// GetByIDs retrieves multiple courses by their IDs.
func (r *courseRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Course, error) {
	if len(ids) == 0 {
		return []model.Course{}, nil
	}

	query := `
		SELECT id, title, description, created_at
		FROM courses
		WHERE id = ANY($1)
		ORDER BY title
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query courses by IDs")
		return nil, fmt.Errorf("failed to query courses by IDs: %w", err)
	}
	defer rows.Close()

	var courses []model.Course
	for rows.Next() {
		var c model.Course
		err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan course row")
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating course rows")
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	return courses, nil
}

// ValidateCoursesExist checks if all provided course IDs exist in the database.
// Returns error if any course ID does not exist.
func (r *courseRepository) ValidateCoursesExist(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	// Query to check how many of the provided IDs exist
	query := `
		SELECT COUNT(DISTINCT id)
		FROM courses
		WHERE id = ANY($1)
	`

	var count int
	err := r.pool.QueryRow(ctx, query, ids).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to validate courses exist")
		return fmt.Errorf("failed to validate courses exist: %w", err)
	}

	if count != len(ids) {
		r.logger.Warn().
			Int("expected", len(ids)).
			Int("found", count).
			Msg("not all course IDs exist")
		return model.ErrCourseNotFound
	}

	return nil
}

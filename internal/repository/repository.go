package repository

import (
	"context"

	"coursepass/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CourseRepository defines the interface for course catalogue access.
// Course content is owned by the back office; this service only reads.
type CourseRepository interface {
	// GetByIDs retrieves multiple courses by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Course, error)

	// ValidateCoursesExist checks if all provided course IDs exist in the database.
	// Returns model.ErrCourseNotFound if any course ID does not exist.
	ValidateCoursesExist(ctx context.Context, ids []string) error
}

// VoucherRepository defines the interface for voucher data access operations.
type VoucherRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// FindByCode retrieves a voucher by its code together with its linked
	// course IDs. Returns (nil, nil) when no voucher carries the code.
	FindByCode(ctx context.Context, code string) (*model.Voucher, error)

	// Create inserts a voucher and its course links within the provided
	// transaction. A nil tx runs against the pool directly.
	Create(ctx context.Context, tx pgx.Tx, voucher *model.Voucher) error

	// IncrementUsage atomically increments used_count by 1 if and only if
	// used_count is still below max_usage at the moment of the write. Returns
	// false when the conditional update affected zero rows.
	IncrementUsage(ctx context.Context, tx pgx.Tx, voucherID uuid.UUID) (bool, error)
}

// EnrollmentRepository defines the interface for enrollment data access operations.
type EnrollmentRepository interface {
	// ListEnrolledCourseIDs returns the subset of courseIDs the user is
	// already enrolled in.
	ListEnrolledCourseIDs(ctx context.Context, userID string, courseIDs []string) ([]string, error)

	// Create inserts an enrollment row within the provided transaction.
	// Returns false without error when the (user, course) pair already
	// exists; the store-level unique constraint is the arbiter.
	Create(ctx context.Context, tx pgx.Tx, enrollment *model.Enrollment) (bool, error)
}

// RedemptionRepository defines the interface for the redemption ledger.
type RedemptionRepository interface {
	// Create inserts a write-once ledger entry within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, record *model.RedemptionRecord) error
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment statuses. Progress tracking mutates ProgressPercentage elsewhere;
// this service only ever creates rows in the ENROLLED state.
const (
	EnrollmentStatusEnrolled = "ENROLLED"
)

// Enrollment represents a user's membership in a course. The (UserID, CourseID)
// pair is unique at the store level.
type Enrollment struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	UserID             string    `json:"userId" db:"user_id"`
	CourseID           string    `json:"courseId" db:"course_id"`
	Status             string    `json:"status" db:"status"`
	ProgressPercentage float64   `json:"progressPercentage" db:"progress_percentage"`
	EnrolledAt         time.Time `json:"enrolledAt" db:"enrolled_at"`
}

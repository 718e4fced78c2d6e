package model

import (
	"time"

	"github.com/google/uuid"
)

// RedemptionRecord is a write-once ledger entry for a successful redemption.
// CourseID is the first course of the linked set, kept as a reporting key.
// Amount is always zero for access-code redemptions.
type RedemptionRecord struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	VoucherID  uuid.UUID `json:"voucherId" db:"voucher_id"`
	CourseID   string    `json:"courseId" db:"course_id"`
	Amount     float64   `json:"amount" db:"amount"`
	RedeemedAt time.Time `json:"redeemedAt" db:"redeemed_at"`
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Voucher kinds. Only access codes are redeemable through this service;
// discount codes are validated at checkout by a separate path.
const (
	VoucherKindAccessCode = "ACCESS_CODE"
	VoucherKindDiscount   = "DISCOUNT"
)

// Voucher represents a redeemable code backed by a usage quota.
type Voucher struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Code      string     `json:"code" db:"code"`
	Kind      string     `json:"kind" db:"kind"`
	IsActive  bool       `json:"isActive" db:"is_active"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	MaxUsage  int        `json:"maxUsage" db:"max_usage"`
	UsedCount int        `json:"usedCount" db:"used_count"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`

	// CourseIDs is the linked-course set, loaded alongside the voucher row.
	CourseIDs []string `json:"courseIds" db:"-"`
}

// RedeemRequest represents the request payload for redeeming an access code.
type RedeemRequest struct {
	Code   string `json:"code"`
	UserID string `json:"userId"`
}

// RedeemResponse represents the response payload for a successful redemption.
type RedeemResponse struct {
	Success       bool   `json:"success"`
	EnrolledCount int    `json:"enrolledCount"`
	Message       string `json:"message"`
}

// RedemptionResult is the service-level outcome of a successful redemption.
type RedemptionResult struct {
	EnrolledCount int
	CourseTitles  []string
}

// GenerateRequest represents the request payload for creating access codes.
type GenerateRequest struct {
	CourseIDs []string `json:"courseIds"`
	// QuantityOrLimit is the shared usage limit in shared mode, or the number
	// of single-use codes in batch mode.
	QuantityOrLimit int `json:"quantityOrLimit"`
	// CustomCodeOrPrefix is the exact code in shared mode (optional) or the
	// code prefix in batch mode (optional).
	CustomCodeOrPrefix string `json:"customCodeOrPrefix,omitempty"`
	BatchMode          bool   `json:"batchMode"`
	// Export requests a CSV export of a generated batch for distribution.
	Export bool `json:"export,omitempty"`
}

// GenerateResponse represents the response payload for code generation.
type GenerateResponse struct {
	Success bool     `json:"success"`
	Code    string   `json:"code,omitempty"`
	Codes   []string `json:"codes,omitempty"`
}

package voucher

import (
	"time"

	"coursepass/internal/model"
)

// Validate runs the redemption preconditions against a loaded voucher and
// returns nil when the voucher is eligible. Checks run in a fixed order and
// the first failure wins, so a voucher that is both expired and exhausted is
// always reported as expired. The caller handles the absent-voucher case
// (FindByCode returning nil) before reaching here.
//
// No side effects; the voucher row and its linked courses are the only input.
func Validate(v *model.Voucher, now time.Time) error {
	if v == nil {
		return model.ErrInvalidCode
	}

	// Discount codes are validated at checkout, never redeemed here.
	if v.Kind != model.VoucherKindAccessCode {
		return model.ErrInvalidCode
	}

	if !v.IsActive {
		return model.ErrInactiveCode
	}

	if v.ExpiresAt != nil && v.ExpiresAt.Before(now) {
		return model.ErrExpiredCode
	}

	if v.UsedCount >= v.MaxUsage {
		return model.ErrQuotaFull
	}

	if len(v.CourseIDs) == 0 {
		return model.ErrNoCoursesLinked
	}

	return nil
}

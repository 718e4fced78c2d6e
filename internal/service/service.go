package service

import (
	"context"

	"coursepass/internal/model"
)

// RedemptionService defines operations for access-code redemption.
type RedemptionService interface {
	// Redeem validates the code for the user and, if eligible, atomically
	// enrolls the user into every linked course they do not yet hold while
	// consuming one usage slot of the voucher.
	Redeem(ctx context.Context, code, userID string) (*model.RedemptionResult, error)
}

// CodeService defines admin operations for creating access codes.
type CodeService interface {
	// GenerateShared creates one voucher whose usage limit is shared across
	// many redeemers and returns its code.
	GenerateShared(ctx context.Context, req *model.GenerateRequest) (string, error)

	// GenerateBatch creates N single-use vouchers in one atomic unit and
	// returns their codes.
	GenerateBatch(ctx context.Context, req *model.GenerateRequest) ([]string, error)
}

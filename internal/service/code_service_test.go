package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"coursepass/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockExporter is a mock implementation of export.Exporter.
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, batchName string, codes []string) (string, error) {
	args := m.Called(ctx, batchName, codes)
	return args.String(0), args.Error(1)
}

var errStore = errors.New("connection reset by peer")

func uniqueViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "vouchers_code_key"}
}

func TestCodeService_GenerateShared_CustomCode(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucherRepo := new(MockVoucherRepository)
	courseRepo := new(MockCourseRepository)
	tx := new(MockTx)

	courseIDs := []string{"go-101", "go-201"}
	courseRepo.On("ValidateCoursesExist", ctx, courseIDs).Return(nil)
	voucherRepo.On("BeginTx", ctx).Return(tx, nil)
	voucherRepo.On("Create", ctx, tx, mock.MatchedBy(func(v *model.Voucher) bool {
		return v.Code == "PROMO" &&
			v.Kind == model.VoucherKindAccessCode &&
			v.IsActive &&
			v.MaxUsage == 3 &&
			v.UsedCount == 0 &&
			len(v.CourseIDs) == 2
	})).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	svc := NewCodeService(voucherRepo, courseRepo, nil, logger)
	code, err := svc.GenerateShared(ctx, &model.GenerateRequest{
		CourseIDs:          courseIDs,
		QuantityOrLimit:    3,
		CustomCodeOrPrefix: "PROMO",
	})

	require.NoError(t, err)
	assert.Equal(t, "PROMO", code)
	voucherRepo.AssertExpectations(t)
}

func TestCodeService_GenerateShared_DerivedCode(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucherRepo := new(MockVoucherRepository)
	courseRepo := new(MockCourseRepository)
	tx := new(MockTx)

	courseIDs := []string{"go-101"}
	courseRepo.On("ValidateCoursesExist", ctx, courseIDs).Return(nil)
	voucherRepo.On("BeginTx", ctx).Return(tx, nil)
	voucherRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.Voucher")).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	svc := NewCodeService(voucherRepo, courseRepo, nil, logger)
	code, err := svc.GenerateShared(ctx, &model.GenerateRequest{
		CourseIDs:       courseIDs,
		QuantityOrLimit: 10,
	})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(code, "CRS-"))
}

// A caller-supplied code that already exists is not retried; it surfaces as a
// generic failure rather than silently minting a different code.
func TestCodeService_GenerateShared_CustomCodeCollision(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucherRepo := new(MockVoucherRepository)
	courseRepo := new(MockCourseRepository)
	tx := new(MockTx)

	courseIDs := []string{"go-101"}
	courseRepo.On("ValidateCoursesExist", ctx, courseIDs).Return(nil)
	voucherRepo.On("BeginTx", ctx).Return(tx, nil)
	voucherRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.Voucher")).Return(uniqueViolation())
	tx.On("Rollback", ctx).Return(nil)

	svc := NewCodeService(voucherRepo, courseRepo, nil, logger)
	code, err := svc.GenerateShared(ctx, &model.GenerateRequest{
		CourseIDs:          courseIDs,
		QuantityOrLimit:    5,
		CustomCodeOrPrefix: "TAKEN",
	})

	assert.Empty(t, code)
	assert.Equal(t, model.ErrGenericFailure, err)
	voucherRepo.AssertNumberOfCalls(t, "Create", 1)
}

// A derived code collision retries with a fresh suffix.
func TestCodeService_GenerateShared_DerivedCodeCollisionRetries(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucherRepo := new(MockVoucherRepository)
	courseRepo := new(MockCourseRepository)
	tx := new(MockTx)

	courseIDs := []string{"go-101"}
	courseRepo.On("ValidateCoursesExist", ctx, courseIDs).Return(nil)
	voucherRepo.On("BeginTx", ctx).Return(tx, nil)
	voucherRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.Voucher")).Return(uniqueViolation()).Once()
	voucherRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.Voucher")).Return(nil).Once()
	tx.On("Rollback", ctx).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	svc := NewCodeService(voucherRepo, courseRepo, nil, logger)
	code, err := svc.GenerateShared(ctx, &model.GenerateRequest{
		CourseIDs:       courseIDs,
		QuantityOrLimit: 5,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, code)
	voucherRepo.AssertNumberOfCalls(t, "Create", 2)
}

func TestCodeService_GenerateBatch(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucherRepo := new(MockVoucherRepository)
	courseRepo := new(MockCourseRepository)
	tx := new(MockTx)

	courseIDs := []string{"go-101"}
	courseRepo.On("ValidateCoursesExist", ctx, courseIDs).Return(nil)
	voucherRepo.On("BeginTx", ctx).Return(tx, nil)
	// Savepoint transactions are created per insert by MockTx.Begin.
	voucherRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(v *model.Voucher) bool {
		return v.MaxUsage == 1 && strings.HasPrefix(v.Code, "SCH-")
	})).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	svc := NewCodeService(voucherRepo, courseRepo, nil, logger)
	codes, err := svc.GenerateBatch(ctx, &model.GenerateRequest{
		CourseIDs:          courseIDs,
		QuantityOrLimit:    10,
		CustomCodeOrPrefix: "SCH",
		BatchMode:          true,
	})

	require.NoError(t, err)
	require.Len(t, codes, 10)

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.True(t, strings.HasPrefix(code, "SCH-"))
		assert.False(t, seen[code], "duplicate code in batch: %s", code)
		seen[code] = true
	}

	assert.True(t, tx.committed)
	voucherRepo.AssertNumberOfCalls(t, "Create", 10)
}

// A persistent store failure rolls the whole batch back: all or nothing.
func TestCodeService_GenerateBatch_AllOrNothing(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucherRepo := new(MockVoucherRepository)
	courseRepo := new(MockCourseRepository)
	tx := new(MockTx)

	courseIDs := []string{"go-101"}
	courseRepo.On("ValidateCoursesExist", ctx, courseIDs).Return(nil)
	voucherRepo.On("BeginTx", ctx).Return(tx, nil)
	voucherRepo.On("Create", ctx, mock.Anything, mock.AnythingOfType("*model.Voucher")).Return(nil).Times(3)
	voucherRepo.On("Create", ctx, mock.Anything, mock.AnythingOfType("*model.Voucher")).Return(errStore)
	tx.On("Rollback", ctx).Return(nil)

	svc := NewCodeService(voucherRepo, courseRepo, nil, logger)
	codes, err := svc.GenerateBatch(ctx, &model.GenerateRequest{
		CourseIDs:       courseIDs,
		QuantityOrLimit: 5,
		BatchMode:       true,
	})

	assert.Nil(t, codes)
	require.Error(t, err)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

// A collision inside the batch regenerates only the affected entry.
func TestCodeService_GenerateBatch_CollisionRegeneratesEntry(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucherRepo := new(MockVoucherRepository)
	courseRepo := new(MockCourseRepository)
	tx := new(MockTx)

	courseIDs := []string{"go-101"}
	courseRepo.On("ValidateCoursesExist", ctx, courseIDs).Return(nil)
	voucherRepo.On("BeginTx", ctx).Return(tx, nil)
	voucherRepo.On("Create", ctx, mock.Anything, mock.AnythingOfType("*model.Voucher")).Return(uniqueViolation()).Once()
	voucherRepo.On("Create", ctx, mock.Anything, mock.AnythingOfType("*model.Voucher")).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	svc := NewCodeService(voucherRepo, courseRepo, nil, logger)
	codes, err := svc.GenerateBatch(ctx, &model.GenerateRequest{
		CourseIDs:       courseIDs,
		QuantityOrLimit: 3,
		BatchMode:       true,
	})

	require.NoError(t, err)
	assert.Len(t, codes, 3)
	// 3 entries plus 1 retried insert
	voucherRepo.AssertNumberOfCalls(t, "Create", 4)
}

func TestCodeService_GenerateBatch_ExportAfterCommit(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucherRepo := new(MockVoucherRepository)
	courseRepo := new(MockCourseRepository)
	exporter := new(MockExporter)
	tx := new(MockTx)

	courseIDs := []string{"go-101"}
	courseRepo.On("ValidateCoursesExist", ctx, courseIDs).Return(nil)
	voucherRepo.On("BeginTx", ctx).Return(tx, nil)
	voucherRepo.On("Create", ctx, mock.Anything, mock.AnythingOfType("*model.Voucher")).Return(nil)
	tx.On("Commit", ctx).Return(nil)
	exporter.On("Export", ctx, "SCH", mock.AnythingOfType("[]string")).Return("access-codes/SCH.csv", nil)

	svc := NewCodeService(voucherRepo, courseRepo, exporter, logger)
	codes, err := svc.GenerateBatch(ctx, &model.GenerateRequest{
		CourseIDs:          courseIDs,
		QuantityOrLimit:    2,
		CustomCodeOrPrefix: "SCH",
		BatchMode:          true,
		Export:             true,
	})

	require.NoError(t, err)
	assert.Len(t, codes, 2)
	exporter.AssertExpectations(t)
}

func TestCodeService_Validation(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	voucherRepo := new(MockVoucherRepository)
	courseRepo := new(MockCourseRepository)
	svc := NewCodeService(voucherRepo, courseRepo, nil, logger)

	t.Run("no courses", func(t *testing.T) {
		_, err := svc.GenerateShared(ctx, &model.GenerateRequest{QuantityOrLimit: 1})
		assert.Equal(t, model.ErrNoCoursesLinked, err)
	})

	t.Run("zero limit", func(t *testing.T) {
		_, err := svc.GenerateShared(ctx, &model.GenerateRequest{CourseIDs: []string{"go-101"}, QuantityOrLimit: 0})
		assert.Equal(t, model.ErrInvalidQuantity, err)
	})

	t.Run("unknown course", func(t *testing.T) {
		courseRepo.On("ValidateCoursesExist", ctx, []string{"missing"}).Return(model.ErrCourseNotFound)
		_, err := svc.GenerateShared(ctx, &model.GenerateRequest{CourseIDs: []string{"missing"}, QuantityOrLimit: 1})
		assert.Equal(t, model.ErrCourseNotFound, err)
	})

	t.Run("batch over cap", func(t *testing.T) {
		courseRepo.On("ValidateCoursesExist", ctx, []string{"go-101"}).Return(nil)
		_, err := svc.GenerateBatch(ctx, &model.GenerateRequest{CourseIDs: []string{"go-101"}, QuantityOrLimit: 5000, BatchMode: true})
		assert.Equal(t, model.ErrInvalidQuantity, err)
	})
}

package repository

import (
	"context"
	"time"

	"handyhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OTPRepository interface {
	Create(ctx context.Context, otp *model.OTP) error
	// InvalidateActive marks every unused code for email+purpose as used
	InvalidateActive(ctx context.Context, email string, purpose model.OTPPurpose) error
	// LatestForUpdate locks the newest code for email+purpose
	LatestForUpdate(ctx context.Context, email string, purpose model.OTPPurpose) (*model.OTP, error)
	Latest(ctx context.Context, email string, purpose model.OTPPurpose) (*model.OTP, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) error
	MarkUsed(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Create(ctx context.Context, otp *model.OTP) error {
	return translate(GetDB(ctx, r.db).Create(otp).Error, "create otp", "Verification code")
}

func (r *otpRepository) InvalidateActive(ctx context.Context, email string, purpose model.OTPPurpose) error {
	err := GetDB(ctx, r.db).Model(&model.OTP{}).
		Where("email = ? AND purpose = ? AND is_used = ?", email, purpose, false).
		Update("is_used", true).Error
	return translate(err, "invalidate otps", "Verification code")
}

func (r *otpRepository) LatestForUpdate(ctx context.Context, email string, purpose model.OTPPurpose) (*model.OTP, error) {
	var otp model.OTP
	err := GetDB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("email = ? AND purpose = ?", email, purpose).
		Order("created_at desc").
		First(&otp).Error
	if err != nil {
		return nil, translate(err, "lock otp", "Verification code")
	}
	return &otp, nil
}

func (r *otpRepository) Latest(ctx context.Context, email string, purpose model.OTPPurpose) (*model.OTP, error) {
	var otp model.OTP
	err := GetDB(ctx, r.db).
		Where("email = ? AND purpose = ?", email, purpose).
		Order("created_at desc").
		First(&otp).Error
	if err != nil {
		return nil, translate(err, "get otp", "Verification code")
	}
	return &otp, nil
}

func (r *otpRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	err := GetDB(ctx, r.db).Model(&model.OTP{}).Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + ?", 1)).Error
	return translate(err, "increment otp attempts", "Verification code")
}

func (r *otpRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	return translate(GetDB(ctx, r.db).Model(&model.OTP{}).Where("id = ?", id).Update("is_used", true).Error, "mark otp used", "Verification code")
}

func (r *otpRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Where("expires_at < ?", before).Delete(&model.OTP{})
	if res.Error != nil {
		return 0, translate(res.Error, "purge otps", "Verification code")
	}
	return res.RowsAffected, nil
}

package repository

import (
	"context"
	"time"

	"handyhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetActive(ctx context.Context, token string, now time.Time) (*model.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return translate(GetDB(ctx, r.db).Create(token).Error, "create refresh token", "Refresh token")
}

func (r *refreshTokenRepository) GetActive(ctx context.Context, token string, now time.Time) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	err := GetDB(ctx, r.db).
		Where("token = ? AND revoked = ? AND expires_at > ?", token, false, now).
		First(&rt).Error
	if err != nil {
		return nil, translate(err, "get refresh token", "Refresh token")
	}
	return &rt, nil
}

func (r *refreshTokenRepository) Revoke(ctx context.Context, token string) error {
	return translate(GetDB(ctx, r.db).Model(&model.RefreshToken{}).Where("token = ?", token).Update("revoked", true).Error, "revoke refresh token", "Refresh token")
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return translate(GetDB(ctx, r.db).Model(&model.RefreshToken{}).Where("user_id = ? AND revoked = ?", userID, false).Update("revoked", true).Error, "revoke user tokens", "Refresh token")
}

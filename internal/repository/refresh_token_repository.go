package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storefront/internal/model"
)

// RefreshTokenRepository defines persistence for stored refresh tokens.
// Delete is atomic at the row level: once a token row is gone it is gone for
// every concurrent lookup, which is what makes rotation single-use.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository builds a GORM-backed repository.
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *refreshTokenRepository) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var record model.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *refreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.db.WithContext(ctx).Where("token = ?", token).Delete(&model.RefreshToken{}).Error
}

// DeleteExpired purges all records whose expiry is before the given instant
// and returns the number of rows removed. Expired tokens are also purged
// eagerly on first use; this is the sweep for tokens never presented again.
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&model.RefreshToken{})
	return res.RowsAffected, res.Error
}

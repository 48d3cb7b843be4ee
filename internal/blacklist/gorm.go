package blacklist

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Cleamaster322/library/internal/models"
)

// Gorm stores revocations in the blacklisted_tokens table so they survive restarts
// and are shared by every replica pointing at the same database.
type Gorm struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{DB: db, now: time.Now}
}

func (g *Gorm) Add(ctx context.Context, jti, userID string, expiresAt time.Time) (bool, error) {
	var added bool
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := g.now().UTC()
		// an expired row for the same jti must not block a fresh revocation
		if err := tx.Where("jti = ? AND expires_at <= ?", jti, now).
			Delete(&models.BlacklistedToken{}).Error; err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "jti"}},
			DoNothing: true,
		}).Create(&models.BlacklistedToken{
			JTI:       jti,
			UserID:    userID,
			ExpiresAt: expiresAt.UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		added = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("blacklist add: %w", err)
	}
	return added, nil
}

func (g *Gorm) Contains(ctx context.Context, jti string) (bool, error) {
	now := g.now().UTC()
	tx := g.DB.WithContext(ctx)

	if err := tx.Where("jti = ? AND expires_at <= ?", jti, now).
		Delete(&models.BlacklistedToken{}).Error; err != nil {
		return false, fmt.Errorf("blacklist prune: %w", err)
	}

	var count int64
	if err := tx.Model(&models.BlacklistedToken{}).
		Where("jti = ?", jti).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return count > 0, nil
}

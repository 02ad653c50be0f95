// File: internal/repository/user/gorm_user_repository.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iyunix/go-lingochat/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

type gormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// Migrate creates the cache table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{})
}

// Upsert stores the user, replacing any cached copy.
func (r *gormUserRepository) Upsert(ctx context.Context, user *domain.User) error {
	if err := user.IsValid(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if user.TargetLanguage == "" {
		user.TargetLanguage = domain.DefaultTargetLanguage
	}
	user.CachedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "email", "target_language", "cached_at"}),
	}).Create(user).Error
	if err != nil {
		return fmt.Errorf("database error caching user: %w", err)
	}
	return nil
}

func (r *gormUserRepository) FindByUID(ctx context.Context, uid string) (*domain.User, error) {
	if strings.TrimSpace(uid) == "" {
		return nil, errors.New("uid is required")
	}

	var user domain.User
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return &user, nil
}

func (r *gormUserRepository) UpdateTargetLanguage(ctx context.Context, uid, language string) error {
	language = strings.TrimSpace(language)
	if language == "" {
		return errors.New("target language is required")
	}

	result := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("uid = ?", uid).
		Updates(map[string]interface{}{"target_language": language, "cached_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("database error updating target language: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *gormUserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := r.db.WithContext(ctx).Order("uid").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	return users, nil
}

func (r *gormUserRepository) Delete(ctx context.Context, uid string) error {
	result := r.db.WithContext(ctx).Where("uid = ?", uid).Delete(&domain.User{})
	if result.Error != nil {
		return fmt.Errorf("database error deleting user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
